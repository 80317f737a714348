package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/storage"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for show command")
	}
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *ShowCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	apps, err := f.LoadApplications(ctx)
	if err != nil {
		return fmt.Errorf("loading applications: %w", err)
	}

	var app *record.Application
	for i := range apps {
		if apps[i].ID == c.ID {
			app = &apps[i]
			break
		}
	}
	if app == nil {
		return fmt.Errorf("application not found: %s", c.ID)
	}

	if jsonOutput(c.globals) {
		return printJSON(app)
	}

	switch c.Format {
	case "json":
		return printJSON(app)
	case "md":
		outputMarkdown(*app)
	default: // "full"
		outputFull(*app)
	}
	return nil
}

func outputFull(app record.Application) {
	fmt.Println(app.ID)
	fmt.Printf("Company:    %s\n", app.CompanyName)
	fmt.Printf("Position:   %s\n", app.Position)
	fmt.Printf("Status:     %s\n", app.Status)
	fmt.Printf("Applied:    %s\n", app.ApplicationDate)
	fmt.Printf("Location:   %s\n", orDash(app.Location))
	fmt.Printf("Job type:   %s\n", orDash(string(app.JobType)))
	fmt.Printf("Salary:     %s\n", orDash(app.SalaryRange))
	fmt.Printf("URL:        %s\n", orDash(app.JobURL))
	fmt.Printf("Interview:  %s", formatTime(app.InterviewDate))
	if app.InterviewType != "" {
		fmt.Printf(" (%s)", app.InterviewType)
	}
	fmt.Println()
	fmt.Printf("Follow-up:  %s\n", formatTime(app.FollowUpDate))
	if app.ContactName != "" || app.ContactEmail != "" || app.ContactPhone != "" {
		fmt.Printf("Contact:    %s %s %s\n", app.ContactName, app.ContactEmail, app.ContactPhone)
	}
	fmt.Printf("Updated:    %s\n", formatTime(&app.UpdatedAt))
	if app.Notes != "" {
		fmt.Println()
		fmt.Println("--- Notes ---")
		fmt.Println(app.Notes)
	}
}

func outputMarkdown(app record.Application) {
	fmt.Println("---")
	fmt.Printf("id: %s\n", app.ID)
	fmt.Printf("company: %s\n", app.CompanyName)
	fmt.Printf("position: %s\n", app.Position)
	fmt.Printf("status: %s\n", app.Status)
	fmt.Printf("applied: %s\n", app.ApplicationDate)
	if app.JobURL != "" {
		fmt.Printf("url: %s\n", app.JobURL)
	}
	if app.Location != "" {
		fmt.Printf("location: %s\n", app.Location)
	}
	fmt.Println("---")
	fmt.Println()
	fmt.Printf("# %s at %s\n", app.Position, app.CompanyName)
	if app.Notes != "" {
		fmt.Println()
		fmt.Println(app.Notes)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
