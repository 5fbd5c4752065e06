package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/vtanalysis/internal/config"
	"github.com/rewired-gh/vtanalysis/internal/logger"
	"github.com/rewired-gh/vtanalysis/internal/models"
	"github.com/rewired-gh/vtanalysis/internal/monitor"
	"github.com/rewired-gh/vtanalysis/internal/storage"
	"github.com/rewired-gh/vtanalysis/internal/telegram"
)

// notifier delivers reports and polling failures.
type notifier interface {
	Send(reports []models.Report) error
	SendError(err error) error
}

// stdoutNotifier writes reports as JSON lines when Telegram is disabled.
type stdoutNotifier struct {
	w io.Writer
}

func (n stdoutNotifier) Send(reports []models.Report) error {
	for _, r := range reports {
		if err := writeJSON(n.w, r, false); err != nil {
			return err
		}
	}
	return nil
}

func (n stdoutNotifier) SendError(error) error { return nil }

func newWatchCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch [analysis-id...]",
		Short: "Poll analyses until they are ready and report their top hits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if !cfg.Monitor.Enabled {
				return fmt.Errorf("monitoring is disabled (monitor.enabled = false)")
			}

			ids := args
			if len(ids) == 0 {
				ids = cfg.Monitor.Analyses
			}
			if len(ids) == 0 {
				return fmt.Errorf("no analyses to watch: pass IDs or set monitor.analyses")
			}

			store, err := storage.New(cfg.Storage.MaxEntries, cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			if err := store.Load(); err != nil {
				logger.Warn("Failed to load notified analyses, starting fresh: %v", err)
			}

			var n notifier = stdoutNotifier{w: cmd.OutOrStdout()}
			if cfg.Telegram.Enabled {
				tc, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
				if err != nil {
					return fmt.Errorf("failed to initialize Telegram client: %w", err)
				}
				logger.Info("Telegram client initialized successfully")
				n = tc
			} else {
				logger.Debug("Telegram notifications disabled, writing reports to stdout")
			}

			w := &watcher{
				monitor:  monitor.New(newClient(cfg), store, cfg.Virtool.Concurrency, cfg.Monitor.TopK),
				notifier: n,
				ids:      ids,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if once {
				return w.cycle(ctx)
			}
			return w.run(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single polling cycle and exit")
	return cmd
}

type watcher struct {
	monitor  *monitor.Monitor
	notifier notifier
	ids      []string

	consecutiveFailures int
}

func (w *watcher) run(ctx context.Context, cfg *config.Config) error {
	logger.Info("Watching %d analyses (interval: %v, concurrency: %d, top_k: %d)",
		len(w.ids), cfg.Virtool.PollInterval, cfg.Virtool.Concurrency, cfg.Monitor.TopK)

	ticker := time.NewTicker(cfg.Virtool.PollInterval)
	defer ticker.Stop()

	w.handleCycleResult(w.cycle(ctx))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil
		case <-ticker.C:
			logger.Debug("Starting scheduled polling cycle")
			w.handleCycleResult(w.cycle(ctx))
		}
	}
}

// handleCycleResult reports the first failure of a failing streak.
func (w *watcher) handleCycleResult(err error) {
	if err == nil {
		w.consecutiveFailures = 0
		return
	}

	w.consecutiveFailures++
	logger.Error("Polling cycle failed: %v", err)
	if w.consecutiveFailures == 1 {
		if sendErr := w.notifier.SendError(err); sendErr != nil {
			logger.Warn("Failed to send error notification: %v", sendErr)
		}
	}
}

// cycle polls once and delivers reports for newly ready analyses. It fails
// when every polled analysis errored or the reports could not be delivered.
func (w *watcher) cycle(ctx context.Context) error {
	start := time.Now()

	polled := len(w.monitor.Pending(w.ids))
	if polled == 0 {
		logger.Debug("All watched analyses have been reported")
		return nil
	}

	reports, errs, err := w.monitor.Poll(ctx, w.ids)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	for _, pe := range errs {
		logger.Warn("%v", pe)
	}
	if len(errs) > 0 && len(errs) == polled {
		return fmt.Errorf("all %d analyses failed: %w", len(errs), errs[0])
	}

	if len(reports) > 0 {
		if err := w.notifier.Send(reports); err != nil {
			return fmt.Errorf("failed to deliver reports: %w", err)
		}
		if err := w.monitor.RecordNotified(reports); err != nil {
			logger.Warn("%v", err)
		}
	}

	logger.Info("Polling cycle completed in %v: %d polled, %d reports, %d errors, %d memoized",
		time.Since(start), polled, len(reports), len(errs), w.monitor.MemoSize())
	return nil
}
