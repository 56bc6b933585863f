package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/sift/internal/parser"
	"github.com/atikulmunna/sift/internal/timeparse"
)

func (a *app) detectCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "detect [paths...]",
		Short: "Print the detected log format of each file",
		Example: `  sift detect /var/log/syslog
  sift detect "logs/**/*.log"
  sift detect --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, f := range parser.Formats() {
					fmt.Fprintln(out, f)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("requires at least 1 path")
			}

			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			n := a.config().SampleSize
			if n <= 0 {
				n = parser.SampleSize
			}
			tp := timeparse.New()
			for _, path := range paths {
				lines, err := sample(cmd, path, n)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s\n", path, parser.DetectWith(lines, tp))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list the supported formats")
	return cmd
}
