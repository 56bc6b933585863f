package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atikulmunna/sift/internal/aggregator"
	"github.com/atikulmunna/sift/internal/filter"
	"github.com/atikulmunna/sift/internal/hub"
	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/output"
	"github.com/atikulmunna/sift/internal/store"
	"github.com/atikulmunna/sift/internal/tailer"
	"github.com/atikulmunna/sift/internal/timeparse"
)

func (a *app) tailCmd() *cobra.Command {
	var ff filterFlags
	var lastN int
	var follow, summary bool

	cmd := &cobra.Command{
		Use:   "tail [path]",
		Short: "Print the last entries of a file and optionally follow it",
		Long: `Tail parses and prints the last N non-blank lines of a file. With --follow
it keeps running, printing every complete line appended to the file until
interrupted, then prints a summary of everything it saw.`,
		Example: `  sift tail app.log -n 20
  sift tail app.log -f --level warning
  sift tail app.log -f --output json | jq .`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flt, err := ff.compile()
			if err != nil {
				return err
			}

			cfg := a.config()
			t, err := tailer.New(tailer.Options{
				LastN:        lastN,
				Follow:       follow,
				Format:       cfg.Format,
				Pattern:      cfg.Pattern,
				Time:         timeparse.New(),
				PollInterval: cfg.PollInterval,
				Logger:       a.log,
			})
			if err != nil {
				return err
			}

			// --- Set up context with graceful shutdown ---
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					fmt.Fprintln(cmd.ErrOrStderr(), "\nsift: stopping")
					cancel()
				case <-ctx.Done():
				}
			}()

			path := args[0]
			errCh := make(chan error, 1)
			go func() {
				if path == stdinPath {
					errCh <- t.Tail(ctx, cmd.InOrStdin())
				} else {
					errCh <- t.TailFile(ctx, path)
				}
			}()

			renderer := output.NewRenderer(cfg.Output, cmd.OutOrStdout(), true)
			if !follow {
				a.render(renderer, flt, t.Entries())
				return <-errCh
			}

			// --- Follow pipeline: tailer -> hub -> view, store, live stats ---
			// The view and the store see every entry; live stats may skip.
			h := hub.New(t.Entries(), a.log)
			view := h.Subscribe()
			kept := h.Subscribe()
			agg := aggregator.New(h.SubscribeLossy(), h.Dropped)
			st := store.New(cfg.storeOptions())

			go h.Start(ctx)
			go agg.Start(ctx)

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for e := range kept {
					st.Append(e)
				}
			}()

			a.render(renderer, flt, view)
			wg.Wait()
			err = <-errCh

			if summary {
				w := cmd.ErrOrStderr()
				printStats(w, agg.Snapshot())
				if werr := output.WriteReport(w, aggregator.Analyze(st.Entries(), cfg.reportOptions()), "text"); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lastN, "lines", "n", 10, "number of trailing lines to print first")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing appended lines until interrupted")
	cmd.Flags().BoolVar(&summary, "summary", true, "print statistics when follow mode stops")
	cmd.Flags().Duration("poll-interval", tailer.DefaultPollInterval, "how often to check for new data")
	_ = a.v.BindPFlag("poll_interval", cmd.Flags().Lookup("poll-interval"))
	ff.register(cmd, false)
	return cmd
}

// render writes every entry passing flt until entries is closed.
func (a *app) render(r output.Renderer, flt *filter.Filter, entries <-chan model.LogEntry) {
	for e := range entries {
		if !flt.Match(e) {
			continue
		}
		if err := r.Render(e); err != nil {
			a.log.Warn("render error", zap.Error(err))
		}
	}
}

func printStats(w io.Writer, s aggregator.Stats) {
	fmt.Fprintf(w, "%d events in %s (%.1f/s), %d dropped\n",
		s.TotalEvents, s.Uptime, s.EPS, s.DroppedLogs)

	levels := make([]string, 0, len(s.LevelCounts))
	for l := range s.LevelCounts {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool {
		li, _ := model.ParseLevel(levels[i])
		lj, _ := model.ParseLevel(levels[j])
		return li < lj
	})
	for _, l := range levels {
		fmt.Fprintf(w, "  %-9s %d\n", l, s.LevelCounts[l])
	}
	if s.Unclassified > 0 {
		fmt.Fprintf(w, "  %-9s %d\n", "(none)", s.Unclassified)
	}
}
