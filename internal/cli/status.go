package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/stats"
	"github.com/runnerr0/jobtrail/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string     `json:"version"`
	Mode              string     `json:"mode"`
	User              string     `json:"user,omitempty"`
	DatabasePath      string     `json:"database_path"`
	DatabaseSizeBytes int64      `json:"database_size_bytes"`
	SchemaVersion     int        `json:"schema_version"`
	LastSynced        string     `json:"last_synced,omitempty"`
	Slots             []slotJSON `json:"slots"`
}

type slotJSON struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
	UpdatedAt string `json:"updated_at"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	ctx := context.Background()
	env, err := openEnvironment(ctx, c.globals)
	if err != nil {
		return err
	}
	defer env.Close()

	return c.executeWith(ctx, env.facade, env.store)
}

// executeWith runs status against a provided facade and store (for testing).
func (c *StatusCommand) executeWith(ctx context.Context, f *storage.Facade, store *storage.SQLiteStore) error {
	slots, err := store.ListSlots(ctx)
	if err != nil {
		return fmt.Errorf("list slots: %w", err)
	}
	schema, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := statusJSON{
		Version:           c.version,
		Mode:              string(f.Mode()),
		DatabasePath:      store.Path(),
		DatabaseSizeBytes: getDatabaseSize(store.Path()),
		SchemaVersion:     schema,
		Slots:             make([]slotJSON, len(slots)),
	}
	if u := f.CurrentUser(ctx); u != nil {
		out.User = u.ID
		if u.Email != "" {
			out.User += " <" + u.Email + ">"
		}
	}
	last := f.LastSync(ctx)
	if last != nil {
		out.LastSynced = last.LastSynced.Format(time.RFC3339)
	}
	for i, s := range slots {
		out.Slots[i] = slotJSON{Key: s.Key, SizeBytes: s.Size, UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339)}
	}

	if jsonOutput(c.globals) {
		return printJSON(out)
	}

	fmt.Println("jobtrail Status")
	fmt.Println("===============")
	fmt.Printf("Version:       %s\n", out.Version)
	fmt.Printf("Mode:          %s\n", out.Mode)
	if out.User != "" {
		fmt.Printf("Signed in:     %s\n", out.User)
	} else {
		fmt.Println("Signed in:     no")
	}
	fmt.Printf("Database:      %s (%s)\n", out.DatabasePath, formatBytes(out.DatabaseSizeBytes))
	fmt.Printf("Schema:        v%d\n", out.SchemaVersion)
	if last != nil {
		fmt.Printf("Last sync:     %s (%d application(s))\n", last.LastSynced.Local().Format("2006-01-02 15:04"), last.Applications)
	} else {
		fmt.Println("Last sync:     never")
	}

	if len(slots) > 0 {
		fmt.Println()
		fmt.Println("Slots:")
		for _, s := range slots {
			fmt.Printf("  %-16s %10s  %s\n", s.Key, formatBytes(s.Size), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	return nil
}

// getDatabaseSize returns the database file size in bytes, counting the
// WAL file when there is one.
func getDatabaseSize(dbPath string) int64 {
	if dbPath == "" {
		return 0
	}
	var size int64
	for _, p := range []string{dbPath, dbPath + "-wal"} {
		if info, err := os.Stat(p); err == nil {
			size += info.Size()
		}
	}
	return size
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int with comma separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// Execute implements the go-flags Commander interface for StatsCommand.
func (c *StatsCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *StatsCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	s, err := f.GetApplicationStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	if jsonOutput(c.globals) {
		return printJSON(s)
	}
	printStats(s)
	return nil
}

func printStats(s stats.Stats) {
	fmt.Printf("Applications:   %s\n", formatNumber(s.Total))
	fmt.Printf("Interview rate: %.1f%%\n", s.InterviewRate)
	fmt.Printf("Offer rate:     %.1f%%\n", s.OfferRate)

	if len(s.ByStatus) > 0 {
		fmt.Println()
		fmt.Println("By status:")
		for _, st := range record.Statuses {
			if n, ok := s.ByStatus[st]; ok {
				fmt.Printf("  %-12s %s\n", st, formatNumber(n))
			}
		}
	}
	if len(s.ByJobType) > 0 {
		fmt.Println()
		fmt.Println("By job type:")
		for _, jt := range record.JobTypes {
			if n, ok := s.ByJobType[jt]; ok {
				fmt.Printf("  %-12s %s\n", jt, formatNumber(n))
			}
		}
	}
	if len(s.ByLocation) > 0 {
		locations := make([]string, 0, len(s.ByLocation))
		for loc := range s.ByLocation {
			locations = append(locations, loc)
		}
		sort.Strings(locations)

		fmt.Println()
		fmt.Println("By location:")
		for _, loc := range locations {
			fmt.Printf("  %-20s %s\n", loc, formatNumber(s.ByLocation[loc]))
		}
	}
}
