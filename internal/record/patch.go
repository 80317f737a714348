package record

import (
	"strings"
	"time"
)

// Patch is a partial update. Nil fields are left untouched. Interview and
// follow-up dates can be unset with the Clear flags, which win over a value
// supplied in the same patch.
type Patch struct {
	CompanyName     *string        `json:"companyName,omitempty"`
	Position        *string        `json:"position,omitempty"`
	Status          *Status        `json:"status,omitempty"`
	ApplicationDate *Date          `json:"applicationDate,omitempty"`
	JobURL          *string        `json:"jobUrl,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	SalaryRange     *string        `json:"salaryRange,omitempty"`
	Location        *string        `json:"location,omitempty"`
	JobType         *JobType       `json:"jobType,omitempty"`
	InterviewDate   *time.Time     `json:"interviewDate,omitempty"`
	InterviewType   *InterviewType `json:"interviewType,omitempty"`
	FollowUpDate    *time.Time     `json:"followUpDate,omitempty"`
	ContactName     *string        `json:"contactName,omitempty"`
	ContactEmail    *string        `json:"contactEmail,omitempty"`
	ContactPhone    *string        `json:"contactPhone,omitempty"`

	ClearInterview bool `json:"clearInterview,omitempty"`
	ClearFollowUp  bool `json:"clearFollowUp,omitempty"`
}

// StatusPatch is shorthand for a patch that only changes the status.
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Validate checks the supplied fields in isolation, without the record they
// will be merged into.
func (p Patch) Validate() error {
	verr := &ValidationError{}
	if p.CompanyName != nil && strings.TrimSpace(*p.CompanyName) == "" {
		verr.add("companyName", "must not be blank")
	}
	if p.Position != nil && strings.TrimSpace(*p.Position) == "" {
		verr.add("position", "must not be blank")
	}
	if p.Status != nil && !p.Status.Valid() {
		verr.add("status", "is not a known status: "+string(*p.Status))
	}
	if p.ApplicationDate != nil && p.ApplicationDate.IsZero() {
		verr.add("applicationDate", "is required")
	}
	if p.JobType != nil && *p.JobType != "" && !p.JobType.Valid() {
		verr.add("jobType", "is not a known job type: "+string(*p.JobType))
	}
	if p.InterviewType != nil && *p.InterviewType != "" && !p.InterviewType.Valid() {
		verr.add("interviewType", "is not a known interview type: "+string(*p.InterviewType))
	}
	return verr.orNil()
}

// Normalized returns a copy with the same canonical forms Normalize applies
// to whole records.
func (p Patch) Normalized() Patch {
	out := p
	if p.CompanyName != nil {
		out.CompanyName = ptr(strings.TrimSpace(*p.CompanyName))
	}
	if p.Position != nil {
		out.Position = ptr(strings.TrimSpace(*p.Position))
	}
	if p.Location != nil {
		out.Location = ptr(strings.TrimSpace(*p.Location))
	}
	if p.ApplicationDate != nil {
		out.ApplicationDate = ptr(DateOf(p.ApplicationDate.Time))
	}
	out.InterviewDate = normalizePtr(p.InterviewDate)
	out.FollowUpDate = normalizePtr(p.FollowUpDate)
	if p.ClearInterview {
		out.InterviewDate = nil
	}
	if p.ClearFollowUp {
		out.FollowUpDate = nil
	}
	return out
}

// Apply merges the patch into a copy of app. Identity, ownership and
// timestamps are never touched; the caller bumps UpdatedAt.
func (p Patch) Apply(app Application) Application {
	p = p.Normalized()
	out := app.Clone()

	setString(&out.CompanyName, p.CompanyName)
	setString(&out.Position, p.Position)
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.ApplicationDate != nil {
		out.ApplicationDate = *p.ApplicationDate
	}
	setString(&out.JobURL, p.JobURL)
	setString(&out.Notes, p.Notes)
	setString(&out.SalaryRange, p.SalaryRange)
	setString(&out.Location, p.Location)
	if p.JobType != nil {
		out.JobType = *p.JobType
	}
	if p.InterviewDate != nil {
		out.InterviewDate = clonePtr(p.InterviewDate)
	}
	if p.ClearInterview {
		out.InterviewDate = nil
	}
	if p.InterviewType != nil {
		out.InterviewType = *p.InterviewType
	}
	if p.FollowUpDate != nil {
		out.FollowUpDate = clonePtr(p.FollowUpDate)
	}
	if p.ClearFollowUp {
		out.FollowUpDate = nil
	}
	setString(&out.ContactName, p.ContactName)
	setString(&out.ContactEmail, p.ContactEmail)
	setString(&out.ContactPhone, p.ContactPhone)
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T { return &v }
