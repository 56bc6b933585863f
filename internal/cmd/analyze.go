package cmd

import (
	"github.com/spf13/cobra"

	"github.com/atikulmunna/sift/internal/aggregator"
	"github.com/atikulmunna/sift/internal/output"
)

func (a *app) analyzeCmd() *cobra.Command {
	var reportFormat string
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Summarize levels, time range, errors and frequent messages",
		Long: `Analyze loads each file and prints a statistics report: level
distribution, time range, top error messages, an hourly histogram and the
most common messages. Filter flags restrict the report to matching entries.`,
		Example: `  sift analyze app.log
  sift analyze app.log --as json
  sift analyze "logs/*.log" --level warning`,
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
			format := reportFormat
			if format == "" {
				format = cfg.Output
			}

			out := cmd.OutOrStdout()
			for _, path := range paths {
				s, err := a.load(cmd, path)
				if err != nil {
					return err
				}
				report := aggregator.Analyze(flt.Apply(s.Entries()), cfg.reportOptions())
				header(out, path, len(paths) > 1)
				if err := output.WriteReport(out, report, format); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportFormat, "as", "", "report format: text, json, yaml (default: --output)")
	ff.register(cmd, true)
	return cmd
}
