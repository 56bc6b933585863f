package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atikulmunna/sift/internal/output"
)

func (a *app) exportCmd() *cobra.Command {
	var ff filterFlags
	var dest, as string

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write entries to JSON, JSON lines, CSV, text or Parquet",
		Long: `Export writes the entries of one file, optionally filtered, to a
destination. The format comes from --as or, failing that, from the
destination's extension (none or .log means text). Standard output gets
JSON unless --as says otherwise.`,
		Example: `  sift export app.log --to app.json
  sift export app.log --level error --to errors.csv
  sift export app.log --as jsonl > app.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := exportFormat(dest, as)
			if err != nil {
				return err
			}
			flt, err := ff.compile()
			if err != nil {
				return err
			}
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			// Line numbers are per file, so one destination holds one file.
			if len(paths) > 1 {
				return fmt.Errorf("export takes a single file, %d matched: %v", len(paths), paths)
			}

			s, err := a.load(cmd, paths[0])
			if err != nil {
				return err
			}
			entries := flt.Apply(s.Entries())

			if dest == "" {
				return output.Export(cmd.OutOrStdout(), entries, format)
			}
			if err := output.ExportFile(dest, entries, format); err != nil {
				return err
			}
			a.log.Info("exported",
				zap.Int("entries", len(entries)),
				zap.String("format", string(format)),
				zap.String("path", dest))
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "to", "", "destination file (default: stdout)")
	cmd.Flags().StringVar(&as, "as", "", "json, jsonl, csv, text or parquet")
	ff.register(cmd, true)
	return cmd
}

func exportFormat(dest, as string) (output.ExportFormat, error) {
	switch {
	case as != "":
		return output.ParseExportFormat(as)
	case dest != "":
		f, err := output.FormatForPath(dest)
		if err != nil {
			return "", fmt.Errorf("%w (use --as to choose one)", err)
		}
		return f, nil
	default:
		return output.ExportJSON, nil
	}
}
