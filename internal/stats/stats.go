// Package stats derives counts, rates and date-driven views from an
// owner's complete application set.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/runnerr0/jobtrail/internal/record"
)

// Stats summarizes an owner's applications. Breakdown maps only contain
// values that occur; rates are percentages rounded to one decimal.
type Stats struct {
	Total         int                    `json:"total"`
	ByStatus      map[record.Status]int  `json:"byStatus"`
	ByJobType     map[record.JobType]int `json:"byJobType"`
	ByLocation    map[string]int         `json:"byLocation"`
	InterviewRate float64                `json:"interviewRate"`
	OfferRate     float64                `json:"offerRate"`
}

// Compute reduces apps into Stats. An empty set yields zero counts and rates.
func Compute(apps []record.Application) Stats {
	s := Stats{
		Total:      len(apps),
		ByStatus:   map[record.Status]int{},
		ByJobType:  map[record.JobType]int{},
		ByLocation: map[string]int{},
	}

	for _, app := range apps {
		s.ByStatus[app.Status]++
		if app.JobType != "" {
			s.ByJobType[app.JobType]++
		}
		if app.Location != "" {
			s.ByLocation[app.Location]++
		}
	}

	s.InterviewRate = rate(s.ByStatus[record.StatusInterview], s.Total)
	s.OfferRate = rate(s.ByStatus[record.StatusOffered], s.Total)
	return s
}

// rate returns 100*n/total rounded to one decimal, or 0 when total is 0.
func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(total)) / 10
}

// UpcomingInterviews returns records with an interview at or after now,
// soonest first.
func UpcomingInterviews(apps []record.Application, now time.Time) []record.Application {
	out := make([]record.Application, 0)
	for _, app := range apps {
		if app.InterviewDate != nil && !app.InterviewDate.Before(now) {
			out = append(out, app.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InterviewDate.Before(*out[j].InterviewDate)
	})
	return out
}

// FollowUpsNeeded returns records whose follow-up is due at now, oldest first.
func FollowUpsNeeded(apps []record.Application, now time.Time) []record.Application {
	out := make([]record.Application, 0)
	for _, app := range apps {
		if app.FollowUpDue(now) {
			out = append(out, app.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FollowUpDate.Before(*out[j].FollowUpDate)
	})
	return out
}
