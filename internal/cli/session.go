package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/jobtrail/internal/storage"
)

// Execute implements the go-flags Commander interface for ModeCommand.
func (c *ModeCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *ModeCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	if c.Args.Mode != "" {
		m, err := storage.ParseMode(c.Args.Mode)
		if err != nil {
			return err
		}
		if m == storage.ModeRemote && f.CurrentUser(ctx) == nil {
			return fmt.Errorf("sign in before switching to remote mode")
		}
		if err := f.SetMode(ctx, m); err != nil {
			return retryHint(fmt.Errorf("set mode: %w", err))
		}
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]string{"mode": string(f.Mode())})
	}
	fmt.Printf("Storage mode: %s\n", f.Mode())
	return nil
}

// Execute implements the go-flags Commander interface for SignInCommand.
func (c *SignInCommand) Execute(args []string) error {
	if c.Token == "" {
		return fmt.Errorf("--token is required for signin command")
	}
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *SignInCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	session, err := f.SignIn(ctx, c.Token)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(session)
	}
	fmt.Printf("Signed in as %s (session expires %s)\n", session.User.ID, session.ExpiresAt.Local().Format(time.RFC3339))
	return nil
}

// Execute implements the go-flags Commander interface for SignOutCommand.
func (c *SignOutCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *SignOutCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	if err := f.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if jsonOutput(c.globals) {
		return printJSON(map[string]bool{"signed_out": true})
	}
	fmt.Println("Signed out.")
	if f.Mode() == storage.ModeRemote {
		fmt.Println("Storage mode is still remote; run `jobtrail mode local` to use local data.")
	}
	return nil
}

// Execute implements the go-flags Commander interface for WhoAmICommand.
func (c *WhoAmICommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *WhoAmICommand) executeWith(ctx context.Context, f *storage.Facade) error {
	user := f.CurrentUser(ctx)
	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{"user": user})
	}
	if user == nil {
		fmt.Println("Not signed in.")
		return nil
	}
	if user.Email != "" {
		fmt.Printf("%s <%s>\n", user.ID, user.Email)
	} else {
		fmt.Println(user.ID)
	}
	return nil
}
