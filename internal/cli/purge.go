package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/jobtrail/internal/storage"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	if !c.Force {
		if err := confirmPurge(os.Stdin); err != nil {
			return err
		}
	}

	ctx := context.Background()
	env, err := openEnvironment(ctx, c.globals)
	if err != nil {
		return err
	}
	defer env.Close()

	return c.executeWith(ctx, env.store)
}

// confirmPurge prints the warning and requires the user to type PURGE.
func confirmPurge(in io.Reader) error {
	fmt.Println("⚠ WARNING: This will permanently delete ALL local jobtrail data.")
	fmt.Println("  - All locally stored applications")
	fmt.Println("  - Profile, resume and settings")
	fmt.Println("  - The session and storage mode")
	fmt.Println()
	fmt.Println("Remote data is not touched. This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// executeWith clears every slot of a provided store (for testing).
func (c *PurgeCommand) executeWith(ctx context.Context, store *storage.SQLiteStore) error {
	if err := store.PurgeAll(ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{
			"purged":  true,
			"message": "all local data deleted",
		})
	}

	fmt.Println("Purged all local data. jobtrail is empty.")
	return nil
}
