package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atikulmunna/sift/internal/aggregator"
	"github.com/atikulmunna/sift/internal/output"
)

func (a *app) filterCmd() *cobra.Command {
	var ff filterFlags
	var count, report bool

	cmd := &cobra.Command{
		Use:   "filter [paths...]",
		Short: "Print entries matching severity, time and regex criteria",
		Long: `Filter prints the entries of each file that pass every given criterion.
A level keeps that severity and anything more severe; entries without a
level are dropped once a level is given. Entries without a timestamp are
dropped once --start or --end is given. --exclude wins over --include.`,
		Example: `  sift filter app.log --level error
  sift filter app.log --start "2024-01-15 10:00:00" --end "2024-01-15 11:00:00"
  sift filter app.log --include "timeout|refused" -i --exclude healthcheck`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flt, err := ff.compile()
			if err != nil {
				return err
			}
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}

			cfg := a.config()
			out := cmd.OutOrStdout()
			renderer := output.NewRenderer(cfg.Output, out, true)

			for _, path := range paths {
				s, err := a.load(cmd, path)
				if err != nil {
					return err
				}
				matched := flt.Apply(s.Entries())
				a.log.Debug("filtered",
					zap.String("path", path),
					zap.Int("total", s.Len()),
					zap.Int("matched", len(matched)))

				header(out, path, len(paths) > 1)
				if count {
					fmt.Fprintln(out, len(matched))
					continue
				}
				for _, e := range matched {
					if err := renderer.Render(e); err != nil {
						return err
					}
				}
				if report {
					if err := output.WriteReport(out, aggregator.Analyze(matched, cfg.reportOptions()), "text"); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	ff.register(cmd, true)
	cmd.Flags().BoolVar(&count, "count", false, "print only the number of matching entries")
	cmd.Flags().BoolVar(&report, "report", false, "append a statistics report of the matches")
	return cmd
}
