package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/jobtrail/internal/query"
	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/storage"
)

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f, time.Now())
	})
}

// criteria converts the flags into query criteria. Relative dates are
// resolved against now.
func (c *ListCommand) criteria(now time.Time) (query.Criteria, error) {
	crit := query.Criteria{
		Status:        c.Status,
		Company:       c.Company,
		JobType:       record.JobType(c.JobType),
		Location:      c.Location,
		HasInterview:  c.HasInterview,
		NeedsFollowUp: c.NeedsFollowUp,
	}
	if c.Since != "" {
		d, err := parseDateFlag(c.Since, now)
		if err != nil {
			return crit, fmt.Errorf("invalid --since value: %w", err)
		}
		crit.StartDate = &d
	}
	if c.Until != "" {
		d, err := parseDateFlag(c.Until, now)
		if err != nil {
			return crit, fmt.Errorf("invalid --until value: %w", err)
		}
		crit.EndDate = &d
	}
	if err := crit.Validate(); err != nil {
		return crit, err
	}
	return crit, nil
}

// executeWith runs the listing against a provided facade (for testing).
func (c *ListCommand) executeWith(ctx context.Context, f *storage.Facade, now time.Time) error {
	crit, err := c.criteria(now)
	if err != nil {
		return err
	}

	apps, err := f.GetApplications(ctx, crit)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	total := len(apps)
	apps = page(apps, c.Offset, c.Limit)

	if jsonOutput(c.globals) {
		return printJSON(jsonListOutput{Count: len(apps), Total: total, Criteria: crit, Results: apps})
	}
	printApplications(apps, c.Offset, "No applications match.")
	return nil
}

// page applies offset and limit; a limit of 0 keeps everything.
func page(apps []record.Application, offset, limit int) []record.Application {
	if offset > 0 {
		if offset >= len(apps) {
			return []record.Application{}
		}
		apps = apps[offset:]
	}
	if limit > 0 && limit < len(apps) {
		apps = apps[:limit]
	}
	return apps
}

type jsonListOutput struct {
	Count    int                  `json:"count"`
	Total    int                  `json:"total"`
	Criteria query.Criteria       `json:"criteria"`
	Results  []record.Application `json:"results"`
}

// printApplications prints one block per application.
func printApplications(apps []record.Application, offset int, empty string) {
	if len(apps) == 0 {
		fmt.Println(empty)
		return
	}

	word := "applications"
	if len(apps) == 1 {
		word = "application"
	}
	fmt.Printf("%d %s\n\n", len(apps), word)

	for i, app := range apps {
		fmt.Printf("%d. %s - %s\n", i+1+offset, app.CompanyName, app.Position)
		fmt.Printf("   %s\n", app.ID)

		meta := app.ApplicationDate.String() + " · " + string(app.Status)
		if app.Location != "" {
			meta += " · " + app.Location
		}
		if app.JobType != "" {
			meta += " · " + string(app.JobType)
		}
		fmt.Printf("   %s\n", meta)
		if app.InterviewDate != nil {
			fmt.Printf("   interview %s", formatTime(app.InterviewDate))
			if app.InterviewType != "" {
				fmt.Printf(" (%s)", app.InterviewType)
			}
			fmt.Println()
		}
		if app.FollowUpDate != nil {
			fmt.Printf("   follow up %s\n", formatTime(app.FollowUpDate))
		}

		if i < len(apps)-1 {
			fmt.Println()
		}
	}
}

// Execute implements the go-flags Commander interface for UpcomingCommand.
func (c *UpcomingCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *UpcomingCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	apps, err := f.GetUpcomingInterviews(ctx)
	if err != nil {
		return fmt.Errorf("loading interviews: %w", err)
	}
	if jsonOutput(c.globals) {
		return printJSON(apps)
	}
	printApplications(apps, 0, "No upcoming interviews.")
	return nil
}

// Execute implements the go-flags Commander interface for FollowUpsCommand.
func (c *FollowUpsCommand) Execute(args []string) error {
	return withFacade(c.globals, func(ctx context.Context, f *storage.Facade) error {
		return c.executeWith(ctx, f)
	})
}

func (c *FollowUpsCommand) executeWith(ctx context.Context, f *storage.Facade) error {
	apps, err := f.GetFollowUpsNeeded(ctx)
	if err != nil {
		return fmt.Errorf("loading follow-ups: %w", err)
	}
	if jsonOutput(c.globals) {
		return printJSON(apps)
	}
	printApplications(apps, 0, "No follow-ups due.")
	return nil
}
