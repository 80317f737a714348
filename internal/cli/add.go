package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

// executeWith runs the add logic against a provided facade (used by tests).
func (c *AddCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	app, err := c.application()
	if err != nil {
		return err
	}

	stored, err := f.RecordApplication(ctx, app)
	if err != nil {
		return retryHint(fmt.Errorf("recording application: %w", err))
	}
	return printRecorded(c.globals, stored)
}

// application builds a candidate record from the flags that were given.
func (r RecordFields) application() (record.Application, error) {
	var app record.Application
	p, err := r.patch()
	if err != nil {
		return app, err
	}
	return p.Apply(app), nil
}

// patch converts the given flags into a partial update.
func (r RecordFields) patch() (record.Patch, error) {
	var p record.Patch
	p.CompanyName = r.Company
	p.Position = r.Position
	p.Notes = r.Notes
	p.SalaryRange = r.Salary
	p.Location = r.Location
	p.ContactName = r.ContactName
	p.ContactEmail = r.ContactEmail
	p.ContactPhone = r.ContactPhone

	if r.URL != nil {
		if err := checkURL(*r.URL); err != nil {
			return p, err
		}
		p.JobURL = r.URL
	}
	if r.Status != nil {
		s := record.Status(strings.TrimSpace(*r.Status))
		p.Status = &s
	}
	if r.JobType != nil {
		t := record.JobType(strings.TrimSpace(*r.JobType))
		p.JobType = &t
	}
	if r.InterviewType != nil {
		t := record.InterviewType(strings.TrimSpace(*r.InterviewType))
		p.InterviewType = &t
	}
	if r.Date != nil {
		d, err := record.ParseDate(*r.Date)
		if err != nil {
			return p, fmt.Errorf("invalid --date: %w", err)
		}
		p.ApplicationDate = &d
	}
	if r.Interview != nil {
		t, err := parseTimeFlag(*r.Interview)
		if err != nil {
			return p, fmt.Errorf("invalid --interview: %w", err)
		}
		p.InterviewDate = &t
	}
	if r.FollowUp != nil {
		t, err := parseTimeFlag(*r.FollowUp)
		if err != nil {
			return p, fmt.Errorf("invalid --follow-up: %w", err)
		}
		p.FollowUpDate = &t
	}
	return p, nil
}

// checkURL rejects job URLs that are set but not absolute http(s) URLs.
func checkURL(raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", raw)
	}
	return nil
}

// Execute implements the go-flags Commander interface for CaptureCommand.
func (c *CaptureCommand) Execute(args []string) error {
	if c.Company == "" {
		return fmt.Errorf("--company is required for capture command")
	}
	if c.Position == "" {
		return fmt.Errorf("--position is required for capture command")
	}
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *CaptureCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	if err := checkURL(c.URL); err != nil {
		return err
	}
	stored, err := f.RecordCapture(ctx, record.Capture{
		Company:  c.Company,
		Position: c.Position,
		URL:      c.URL,
	})
	if err != nil {
		return retryHint(fmt.Errorf("recording capture: %w", err))
	}
	return printRecorded(c.globals, stored)
}

// printRecorded confirms a stored application.
func printRecorded(globals *GlobalFlags, app record.Application) error {
	if jsonOutput(globals) {
		return printJSON(app)
	}

	fmt.Printf("Recorded application %s (%s)\n", app.ID, app.ApplicationDate)
	fmt.Printf("  Company:  %s\n", app.CompanyName)
	fmt.Printf("  Position: %s\n", app.Position)
	fmt.Printf("  Status:   %s\n", app.Status)
	if app.JobURL != "" {
		fmt.Printf("  URL:      %s\n", app.JobURL)
	}
	return nil
}
