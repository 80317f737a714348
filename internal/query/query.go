// Package query filters and orders application records by a conjunctive
// set of optional criteria.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/runnerr0/jobtrail/internal/record"
)

// StatusAll matches every status. It is equivalent to leaving Status empty.
const StatusAll = "all"

// Criteria holds the optional filters applied when listing applications.
// Every supplied criterion must hold for a record to be kept.
type Criteria struct {
	Status        string         `json:"status,omitempty"`
	StartDate     *record.Date   `json:"startDate,omitempty"`
	EndDate       *record.Date   `json:"endDate,omitempty"`
	Company       string         `json:"company,omitempty"`
	JobType       record.JobType `json:"jobType,omitempty"`
	Location      string         `json:"location,omitempty"`
	HasInterview  bool           `json:"hasInterview,omitempty"`
	NeedsFollowUp bool           `json:"needsFollowUp,omitempty"`
}

// StatusFilter returns the status to match, or false when any status matches.
func (c Criteria) StatusFilter() (record.Status, bool) {
	if c.Status == "" || c.Status == StatusAll {
		return "", false
	}
	return record.Status(c.Status), true
}

// Validate rejects criteria naming values outside the record enumerations.
// Filter itself never fails; an unknown status simply matches nothing.
func (c Criteria) Validate() error {
	verr := &record.ValidationError{}
	if s, ok := c.StatusFilter(); ok && !s.Valid() {
		verr.Fields = append(verr.Fields, record.FieldError{Field: "status", Message: "is not a known status: " + string(s)})
	}
	if c.JobType != "" && !c.JobType.Valid() {
		verr.Fields = append(verr.Fields, record.FieldError{Field: "jobType", Message: "is not a known job type: " + string(c.JobType)})
	}
	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		verr.Fields = append(verr.Fields, record.FieldError{Field: "startDate", Message: "is after endDate"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Match reports whether app satisfies every supplied criterion at time now.
func (c Criteria) Match(app record.Application, now time.Time) bool {
	if s, ok := c.StatusFilter(); ok && app.Status != s {
		return false
	}
	if c.StartDate != nil && app.ApplicationDate.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && app.ApplicationDate.After(*c.EndDate) {
		return false
	}
	if c.Company != "" && !containsFold(app.CompanyName, c.Company) {
		return false
	}
	if c.JobType != "" && app.JobType != c.JobType {
		return false
	}
	if c.Location != "" && !containsFold(app.Location, c.Location) {
		return false
	}
	if c.HasInterview && !app.HasInterview() {
		return false
	}
	if c.NeedsFollowUp && !app.FollowUpDue(now) {
		return false
	}
	return true
}

// Filter returns the records matching c, most recent application date
// first. Records with equal dates keep their input order. The input slice
// and its records are never modified.
func Filter(apps []record.Application, c Criteria, now time.Time) []record.Application {
	out := make([]record.Application, 0, len(apps))
	for _, app := range apps {
		if c.Match(app, now) {
			out = append(out, app.Clone())
		}
	}
	SortByApplicationDate(out)
	return out
}

// SortByApplicationDate orders apps by application date descending, stable.
func SortByApplicationDate(apps []record.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].ApplicationDate.After(apps[j].ApplicationDate)
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
