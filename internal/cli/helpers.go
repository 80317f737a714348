package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/jobtrail/internal/auth"
	"github.com/runnerr0/jobtrail/internal/config"
	"github.com/runnerr0/jobtrail/internal/logging"
	"github.com/runnerr0/jobtrail/internal/notify"
	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/storage"
)

// retryHint marks failures the store reports as transient so the user
// knows repeating the command may succeed.
func retryHint(err error) error {
	if err == nil || !storage.IsRetryable(err) {
		return err
	}
	return fmt.Errorf("%w (please try again)", err)
}

// environment is what a command runs against, opened from config.
type environment struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *storage.SQLiteStore
	remote   *storage.PostgresStore
	notifier *notify.Async
	facade   *storage.Facade
	unsub    func()
}

// loadConfig reads --config when given, else the default config file.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		return config.Load(globals.Config)
	}
	return config.LoadOrCreate()
}

// openEnvironment opens the local database, connects the remote store when
// a database URL is configured, and builds the facade over both.
func openEnvironment(ctx context.Context, globals *GlobalFlags) (*environment, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globals != nil && globals.Verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.SQLitePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenSQLite(dbPath, cfg.Storage.SQLiteJournalMode)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	env := &environment{cfg: cfg, log: log, store: store}

	if cfg.Remote.DatabaseURL != "" {
		pg, err := storage.ConnectPostgres(ctx, storage.PostgresOptions{
			URL:            cfg.Remote.DatabaseURL,
			MaxConns:       cfg.Remote.MaxConns,
			ConnectTimeout: time.Duration(cfg.Remote.ConnectTimeoutSeconds) * time.Second,
		})
		if err != nil {
			log.Warn("remote database unreachable, remote mode disabled", zap.Error(err))
		} else if err := pg.Migrate(ctx); err != nil {
			log.Warn("remote schema setup failed, remote mode disabled", zap.Error(err))
			pg.Close()
		} else {
			env.remote = pg
		}
	}

	provider := auth.NewTokenProvider(store.SessionTokens(), auth.Config{
		Secret: cfg.Auth.Secret,
		Issuer: cfg.Auth.Issuer,
	})
	env.unsub = provider.Subscribe(func(ev auth.Event, s *auth.Session) {
		fields := []zap.Field{zap.String("event", string(ev))}
		if s != nil {
			fields = append(fields, zap.String("user", s.User.ID))
		}
		log.Info("auth state changed", fields...)
	})

	env.notifier = notify.NewAsync(notify.NewLogNotifier(log), 64)

	opts := storage.Options{
		Slots:              store,
		Auth:               provider,
		Notifier:           env.notifier,
		Logger:             log,
		MigrateConcurrency: cfg.Sync.MigrateConcurrency,
	}
	if env.remote != nil {
		opts.Remote = env.remote
	}
	env.facade, err = storage.NewFacade(ctx, opts)
	if err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

// Close releases everything openEnvironment acquired.
func (e *environment) Close() {
	if e.unsub != nil {
		e.unsub()
	}
	if e.notifier != nil {
		e.notifier.Close()
	}
	if e.remote != nil {
		e.remote.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
	_ = e.log.Sync()
}

// withFacade opens the environment, runs fn and closes it again.
func withFacade(globals *GlobalFlags, fn func(ctx context.Context, f *storage.Facade) error) error {
	ctx := context.Background()
	env, err := openEnvironment(ctx, globals)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(ctx, env.facade)
}

// jsonOutput reports whether --json was given.
func jsonOutput(globals *GlobalFlags) bool {
	return globals != nil && globals.JSON
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// parseDateFlag accepts a calendar date, or a duration meaning that long
// before now.
func parseDateFlag(s string, now time.Time) (record.Date, error) {
	if d, err := record.ParseDate(s); err == nil {
		return d, nil
	}
	dur, err := parseDuration(s)
	if err != nil {
		return record.Date{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or a duration like 30d", s)
	}
	return record.DateOf(now.Add(-dur)), nil
}

// parseTimeFlag accepts the stored timestamp forms plus local
// "YYYY-MM-DD HH:MM" and a bare date at local midnight.
func parseTimeFlag(s string) (time.Time, error) {
	if t, err := record.ParseTimestamp(s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", record.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return record.NormalizeTime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD HH:MM", s)
}

// formatTime renders an optional timestamp in local time.
func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
