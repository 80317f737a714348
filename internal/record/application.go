package record

import (
	"strings"
	"time"
)

// Application is one tracked job application. The JSON form is the layout
// of the local applications slot.
type Application struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`

	CompanyName     string `json:"companyName" validate:"notblank"`
	Position        string `json:"position" validate:"notblank"`
	Status          Status `json:"status" validate:"oneof=applied interview offered accepted rejected stale"`
	ApplicationDate Date   `json:"applicationDate" validate:"-"`

	JobURL        string        `json:"jobUrl,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	SalaryRange   string        `json:"salaryRange,omitempty"`
	Location      string        `json:"location,omitempty"`
	JobType       JobType       `json:"jobType,omitempty" validate:"omitempty,oneof=full-time part-time contract internship remote"`
	InterviewDate *time.Time    `json:"interviewDate,omitempty"`
	InterviewType InterviewType `json:"interviewType,omitempty" validate:"omitempty,oneof=phone video onsite technical behavioral"`
	FollowUpDate  *time.Time    `json:"followUpDate,omitempty"`
	ContactName   string        `json:"contactName,omitempty"`
	ContactEmail  string        `json:"contactEmail,omitempty"`
	ContactPhone  string        `json:"contactPhone,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New applies creation defaults to a candidate record, normalizes it and
// validates it. Identity and timestamps are left for the store to assign.
func New(in Application, now time.Time) (Application, error) {
	app := in
	if app.Status == "" {
		app.Status = StatusApplied
	}
	if app.ApplicationDate.IsZero() {
		app.ApplicationDate = DateOf(now)
	}
	app = Normalize(app)
	if err := Validate(app); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Normalize returns a copy of app with text fields trimmed and every date
// field in its canonical representation.
func Normalize(app Application) Application {
	out := app
	out.CompanyName = strings.TrimSpace(out.CompanyName)
	out.Position = strings.TrimSpace(out.Position)
	out.Location = strings.TrimSpace(out.Location)
	if !out.ApplicationDate.IsZero() {
		out.ApplicationDate = DateOf(out.ApplicationDate.Time)
	}
	out.InterviewDate = normalizePtr(out.InterviewDate)
	out.FollowUpDate = normalizePtr(out.FollowUpDate)
	out.CreatedAt = NormalizeTime(out.CreatedAt)
	out.UpdatedAt = NormalizeTime(out.UpdatedAt)
	return out
}

func normalizePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := NormalizeTime(*t)
	return &n
}

// HasInterview reports whether an interview date is set.
func (a Application) HasInterview() bool { return a.InterviewDate != nil }

// FollowUpDue reports whether the follow-up date is set and not later than now.
func (a Application) FollowUpDue(now time.Time) bool {
	return a.FollowUpDate != nil && !a.FollowUpDate.After(now)
}

// Clone returns a deep copy of a.
func (a Application) Clone() Application {
	out := a
	out.InterviewDate = clonePtr(a.InterviewDate)
	out.FollowUpDate = clonePtr(a.FollowUpDate)
	return out
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// CloneAll deep-copies a slice of applications. The result is never nil.
func CloneAll(apps []Application) []Application {
	out := make([]Application, len(apps))
	for i, a := range apps {
		out[i] = a.Clone()
	}
	return out
}
