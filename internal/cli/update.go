package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/jobtrail/internal/storage"
)

// Execute implements the go-flags Commander interface for UpdateCommand.
func (c *UpdateCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for update command")
	}
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *UpdateCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	p, err := c.RecordFields.patch()
	if err != nil {
		return err
	}
	p.ClearInterview = c.ClearInterview
	p.ClearFollowUp = c.ClearFollowUp
	if p.IsEmpty() {
		return fmt.Errorf("nothing to update: give at least one field flag")
	}

	updated, err := f.UpdateApplication(ctx, c.ID, p)
	if err != nil {
		return retryHint(fmt.Errorf("updating application %s: %w", c.ID, err))
	}

	if jsonOutput(c.globals) {
		return printJSON(updated)
	}
	fmt.Printf("Updated application %s (%s / %s, %s)\n", updated.ID, updated.CompanyName, updated.Position, updated.Status)
	return nil
}

// Execute implements the go-flags Commander interface for DeleteCommand.
func (c *DeleteCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for delete command")
	}
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *DeleteCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	removed, err := f.DeleteApplication(ctx, c.ID)
	if err != nil {
		return retryHint(fmt.Errorf("deleting application %s: %w", c.ID, err))
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{
			"id":      c.ID,
			"deleted": removed,
		})
	}
	if removed {
		fmt.Printf("Deleted application %s\n", c.ID)
	} else {
		fmt.Printf("No application %s; nothing deleted\n", c.ID)
	}
	return nil
}
