package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/atikulmunna/sift/internal/aggregator"
	"github.com/atikulmunna/sift/internal/logging"
	"github.com/atikulmunna/sift/internal/parser"
	"github.com/atikulmunna/sift/internal/tailer"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	log     *zap.Logger
}

// NewRootCmd builds the command tree with a fresh configuration.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "sift",
		Short: "sift, a log file analyzer",
		Long: `sift reads log files, detects their format and turns every line into a
structured entry. Entries can be filtered by severity, time range and regex,
summarized into statistics, exported to JSON, CSV, text or Parquet, or
followed live as the file grows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: $HOME/.sift.yaml)")
	pf.StringP("output", "o", "text", "entry output format: text, json")
	pf.BoolP("verbose", "v", false, "print debug diagnostics to stderr")
	pf.String("format", "", "log format, skips detection: "+formatList())
	pf.String("pattern", "", "named-group regex used by --format regex")
	pf.Int("max-lines", 0, "load at most this many non-blank lines (0 = all)")
	pf.Int("sample-size", parser.SampleSize, "non-blank lines sampled for format detection")
	pf.Int("top-n", aggregator.DefaultTopN, "length of the top message lists")

	for key, flag := range map[string]string{
		"output":      "output",
		"verbose":     "verbose",
		"format":      "format",
		"pattern":     "pattern",
		"max_lines":   "max-lines",
		"sample_size": "sample-size",
		"top_n":       "top-n",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}
	a.v.SetDefault("poll_interval", tailer.DefaultPollInterval)

	root.AddCommand(
		a.detectCmd(),
		a.analyzeCmd(),
		a.filterCmd(),
		a.exportCmd(),
		a.tailCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sift:", err)
		os.Exit(1)
	}
}

func (a *app) initConfig() error {
	v := a.v
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".sift")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("sift")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	a.log = logging.New(v.GetBool("verbose"))
	if f := v.ConfigFileUsed(); f != "" {
		a.log.Debug("using config file", zap.String("file", f))
	}
	return nil
}

func formatList() string {
	formats := parser.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
