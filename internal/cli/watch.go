package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/dyike/CortexSI/config"
	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/internal/metrics"
	"github.com/dyike/CortexSI/pkg/logger"
)

// newWatchCmd creates the watch command
func newWatchCmd(cfg *config.Config) *cobra.Command {
	var (
		tickers     []string
		schedule    string
		metricsAddr string
		runNow      bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Collect on a cron schedule and expose Prometheus metrics",
		Long: `Run collections for the watch tickers on a cron schedule (5-field, KST
market hours by default). The config file and its Telegram channel catalog
are reloaded when they change; schedule, ticker and channel changes apply to
the next run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			current := *cfg
			if len(tickers) > 0 {
				current.WatchTickers = tickers
			}
			if schedule != "" {
				current.WatchSchedule = schedule
			}
			if cmd.Flags().Changed("metrics-addr") {
				current.MetricsAddr = metricsAddr
			}
			snap, err := config.NewSnapshot(current)
			if err != nil {
				return err
			}
			if len(current.WatchTickers) == 0 {
				return fmt.Errorf("no tickers to watch: pass --tickers or set watch_tickers")
			}

			log := logger.Get()
			srv := metrics.StartServer(current.MetricsAddr, func(err error) {
				log.Errorw("metrics server stopped", "addr", current.MetricsAddr, "error", err)
			})
			if srv != nil {
				log.Infow("metrics server listening", "addr", current.MetricsAddr)
				defer func() {
					shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
					defer done()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			w := newScheduler(snap, log)
			if err := w.start(ctx); err != nil {
				return err
			}
			defer w.stop()

			if configFilePath(cmd) != "" {
				if err := watchConfig(ctx, w, tickers, schedule); err != nil {
					log.Warnw("config hot reload disabled", "error", err)
				}
			}

			if runNow {
				w.runAll(ctx)
			}
			<-ctx.Done()
			log.Infow("watch stopped")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "Tickers to watch (overrides watch_tickers)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule (overrides watch_schedule)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics listen address, empty disables")
	cmd.Flags().BoolVar(&runNow, "now", false, "Run once immediately before waiting for the schedule")
	return cmd
}

// watchConfig feeds reloaded snapshots to the scheduler, keeping the command
// line overrides in place.
func watchConfig(ctx context.Context, w *scheduler, tickers []string, schedule string) error {
	mgr, err := config.DefaultManager()
	if err != nil {
		return err
	}
	return mgr.Watch(ctx, func(next config.Snapshot) {
		if len(tickers) > 0 {
			next.Config.WatchTickers = tickers
		}
		if schedule != "" {
			next.Config.WatchSchedule = schedule
		}
		w.reload(ctx, next)
	})
}

// scheduler runs one collection per watch ticker on every cron tick.
type scheduler struct {
	mu     sync.Mutex
	snap   config.Snapshot
	cron   *cron.Cron
	log    *logger.Logger
	runner func(snap config.Snapshot) *runner
}

func newScheduler(snap config.Snapshot, log *logger.Logger) *scheduler {
	return &scheduler{snap: snap, log: log, runner: newSnapshotRunner}
}

func (s *scheduler) start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cron.New(
		cron.WithLocation(timeZone()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	cfg := s.snap.Config
	if _, err := c.AddFunc(cfg.WatchSchedule, func() { s.runAll(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.WatchSchedule, err)
	}
	c.Start()
	s.cron = c
	s.log.Infow("watch scheduled", "schedule", cfg.WatchSchedule, "tickers", cfg.WatchTickers, "telegram_channels", len(s.snap.Channels))
	return nil
}

func (s *scheduler) stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// reload swaps the snapshot and reschedules when the schedule changed.
func (s *scheduler) reload(ctx context.Context, next config.Snapshot) {
	if err := next.Config.Validate(); err != nil {
		s.log.Warnw("ignoring invalid config", "error", err)
		return
	}
	s.mu.Lock()
	prev := s.snap.Config.WatchSchedule
	s.snap = next
	s.mu.Unlock()

	if prev == next.Config.WatchSchedule {
		s.log.Infow("watch config updated", "tickers", next.Config.WatchTickers, "telegram_channels", len(next.Channels))
		return
	}
	s.stop()
	if err := s.start(ctx); err != nil {
		s.log.Errorw("reschedule failed", "error", err)
	}
}

func (s *scheduler) snapshot() config.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *scheduler) runAll(ctx context.Context) {
	snap := s.snapshot()
	cfg := snap.Config
	r := s.runner(snap)
	for _, ticker := range cfg.WatchTickers {
		if ctx.Err() != nil {
			return
		}
		run, err := collectAndSave(ctx, r, &cfg, ticker, collectFlags{format: "full"})
		if err != nil {
			s.log.Errorw("scheduled collection failed", "ticker", ticker, "error", err)
			continue
		}
		s.log.Infow("scheduled collection saved",
			"ticker", ticker,
			"label", run.result.Combined.SentimentLabel,
			"messages", run.result.Stats.TotalMessages,
			"report", run.saved.Markdown,
		)
	}
}

func timeZone() *time.Location {
	if loc, err := time.LoadLocation("Asia/Seoul"); err == nil {
		return loc
	}
	return consts.KST
}
