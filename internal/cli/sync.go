package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/jobtrail/internal/storage"
)

// Execute implements the go-flags Commander interface for SyncCommand.
func (c *SyncCommand) Execute(args []string) error {
	ctx := context.Background()
	env, err := openEnvironment(ctx, c.globals)
	if err != nil {
		return err
	}
	defer env.Close()

	if !c.Watch {
		return c.executeWith(ctx, env.facade)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	interval := time.Duration(env.cfg.Sync.IntervalMinutes) * time.Minute
	env.log.Info("sync loop started", zap.Duration("interval", interval))
	return c.watch(ctx, env.facade, env.log, interval)
}

// executeWith runs one sync pass against a provided facade (for testing).
func (c *SyncCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	state, err := f.Sync(ctx)
	if err != nil {
		return retryHint(fmt.Errorf("sync failed: %w", err))
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{
			"mode":         string(state.Mode),
			"applications": state.Applications,
			"last_synced":  state.LastSynced.Format(time.RFC3339),
		})
	}
	fmt.Printf("Synced %d application(s) from the %s store at %s.\n",
		state.Applications, state.Mode, state.LastSynced.Local().Format("2006-01-02 15:04"))
	return nil
}

// watch repeats the sync pass every interval until ctx is cancelled.
// Failed passes are logged and retried on the next tick. Records are only
// read; nothing but the sync slot is written.
func (c *SyncCommand) watch(ctx context.Context, f *storage.Facade, log *zap.Logger, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		state, err := f.Sync(ctx)
		if err != nil {
			log.Warn("sync pass failed", zap.Error(err))
		} else {
			log.Info("sync pass complete", zap.Int("applications", state.Applications), zap.String("mode", string(state.Mode)))
		}

		select {
		case <-ctx.Done():
			log.Info("sync loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Execute implements the go-flags Commander interface for StaleCommand.
func (c *StaleCommand) Execute(args []string) error {
	ctx := context.Background()
	env, err := openEnvironment(ctx, c.globals)
	if err != nil {
		return err
	}
	defer env.Close()

	olderThan, err := c.threshold(env.cfg.Sync.StaleAfterDays)
	if err != nil {
		return err
	}
	return c.executeWith(ctx, env.facade, olderThan)
}

// threshold returns --older-than, or the configured stale-after days.
func (c *StaleCommand) threshold(staleAfterDays int) (time.Duration, error) {
	if c.OlderThan == "" {
		return time.Duration(staleAfterDays) * 24 * time.Hour, nil
	}
	d, err := parseDuration(c.OlderThan)
	if err != nil {
		return 0, fmt.Errorf("invalid --older-than value: %w", err)
	}
	return d, nil
}

// executeWith runs one stale pass against a provided facade (for testing).
func (c *StaleCommand) executeWith(ctx context.Context, f *storage.Facade, olderThan time.Duration) error {
	n, err := f.MarkStale(ctx, olderThan)
	if err != nil {
		return retryHint(fmt.Errorf("marking stale failed after %d updates: %w", n, err))
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{
			"marked_stale":    n,
			"older_than_days": int(olderThan.Hours() / 24),
		})
	}
	fmt.Printf("Marked %d application(s) stale (applied more than %s ago).\n", n, formatDurationHuman(olderThan))
	return nil
}

// Execute implements the go-flags Commander interface for MigrateCommand.
func (c *MigrateCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *MigrateCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	n, err := f.MigrateLocalToRemote(ctx)
	if err != nil {
		return retryHint(fmt.Errorf("migrated %d application(s) before failing: %w", n, err))
	}
	if c.Switch {
		if err := f.SetMode(ctx, storage.ModeRemote); err != nil {
			return retryHint(fmt.Errorf("set mode: %w", err))
		}
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{
			"migrated": n,
			"mode":     string(f.Mode()),
		})
	}
	fmt.Printf("Migrated %d application(s) to the remote store.\n", n)
	if c.Switch {
		fmt.Println("Storage mode is now remote.")
	}
	return nil
}
