package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gabriel-vasile/mimetype"

	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/storage"
)

// Execute implements the go-flags Commander interface for ProfileCommand.
func (c *ProfileCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *ProfileCommand) edits() bool {
	return c.FirstName != nil || c.LastName != nil || c.Email != nil ||
		c.Phone != nil || c.Salary != nil || c.Location != nil || len(c.Pref) > 0
}

func (c *ProfileCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	current, err := f.LoadProfile(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	var p record.Profile
	if current != nil {
		p = *current
	}

	if c.edits() {
		setString(&p.FirstName, c.FirstName)
		setString(&p.LastName, c.LastName)
		setString(&p.Email, c.Email)
		setString(&p.Phone, c.Phone)
		setString(&p.Salary, c.Salary)
		setString(&p.Location, c.Location)
		if len(c.Pref) > 0 && p.Preferences == nil {
			p.Preferences = map[string]string{}
		}
		for k, v := range c.Pref {
			if v == "" {
				delete(p.Preferences, k)
				continue
			}
			p.Preferences[k] = v
		}
		if err := f.SaveProfile(ctx, p); err != nil {
			return retryHint(fmt.Errorf("save profile: %w", err))
		}
	} else if current == nil {
		if jsonOutput(c.globals) {
			return printJSON(map[string]interface{}{"profile": nil})
		}
		fmt.Println("No profile saved.")
		return nil
	}

	if jsonOutput(c.globals) {
		return printJSON(p)
	}
	fmt.Printf("Name:      %s\n", orDash(p.FullName()))
	fmt.Printf("Email:     %s\n", orDash(p.Email))
	fmt.Printf("Phone:     %s\n", orDash(p.Phone))
	fmt.Printf("Salary:    %s\n", orDash(p.Salary))
	fmt.Printf("Location:  %s\n", orDash(p.Location))
	if len(p.Preferences) > 0 {
		keys := make([]string, 0, len(p.Preferences))
		for k := range p.Preferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("Preferences:")
		for _, k := range keys {
			fmt.Printf("  %s: %s\n", k, p.Preferences[k])
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Execute implements the go-flags Commander interface for ResumeCommand.
func (c *ResumeCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *ResumeCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("reading resume file: %w", err)
		}
		contentType := c.Type
		if contentType == "" {
			contentType = mimetype.Detect(data).String()
		}
		r := record.Resume{
			Name:    filepath.Base(c.File),
			Type:    contentType,
			Content: data,
		}
		if err := f.SaveResume(ctx, r); err != nil {
			return retryHint(fmt.Errorf("save resume: %w", err))
		}
	}

	r, err := f.LoadResume(ctx)
	if err != nil {
		return fmt.Errorf("load resume: %w", err)
	}
	if jsonOutput(c.globals) {
		if r == nil {
			return printJSON(map[string]interface{}{"resume": nil})
		}
		return printJSON(map[string]interface{}{
			"name":        r.Name,
			"type":        r.Type,
			"size_bytes":  len(r.Content),
			"uploaded_at": r.UploadedAt,
		})
	}
	if r == nil {
		fmt.Println("No resume saved.")
		return nil
	}
	fmt.Printf("Resume:    %s (%s, %s)\n", r.Name, r.Type, formatBytes(int64(len(r.Content))))
	fmt.Printf("Uploaded:  %s\n", formatTime(&r.UploadedAt))
	return nil
}

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *ExportCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	data, err := f.ExportDocument(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if c.Out == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(c.Out, data, 0600); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	fmt.Printf("Exported profile and settings to %s\n", c.Out)
	return nil
}

// Execute implements the go-flags Commander interface for ImportCommand.
func (c *ImportCommand) Execute(args []string) error {
	if c.In == "" {
		return fmt.Errorf("--in is required for import command")
	}
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *ImportCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	data, err := os.ReadFile(c.In)
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}
	if err := f.ImportDocument(ctx, data); err != nil {
		return retryHint(fmt.Errorf("import: %w", err))
	}
	if jsonOutput(c.globals) {
		return printJSON(map[string]bool{"imported": true})
	}
	fmt.Printf("Imported profile and settings from %s\n", c.In)
	return nil
}
