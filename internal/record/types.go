// Package record defines the job application record, its enumerations and
// the validation and normalization rules applied before anything is stored.
package record

// Status is the pipeline stage of an application.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffered   Status = "offered"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusStale     Status = "stale"
)

// Statuses lists every valid Status in pipeline order.
var Statuses = []Status{
	StatusApplied,
	StatusInterview,
	StatusOffered,
	StatusAccepted,
	StatusRejected,
	StatusStale,
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// JobType is the employment arrangement of the position.
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeRemote     JobType = "remote"
)

// JobTypes lists every valid JobType.
var JobTypes = []JobType{
	JobTypeFullTime,
	JobTypePartTime,
	JobTypeContract,
	JobTypeInternship,
	JobTypeRemote,
}

// Valid reports whether t is one of the enumerated job types.
func (t JobType) Valid() bool {
	for _, v := range JobTypes {
		if t == v {
			return true
		}
	}
	return false
}

// InterviewType is the format of a scheduled interview.
type InterviewType string

const (
	InterviewPhone      InterviewType = "phone"
	InterviewVideo      InterviewType = "video"
	InterviewOnsite     InterviewType = "onsite"
	InterviewTechnical  InterviewType = "technical"
	InterviewBehavioral InterviewType = "behavioral"
)

// InterviewTypes lists every valid InterviewType.
var InterviewTypes = []InterviewType{
	InterviewPhone,
	InterviewVideo,
	InterviewOnsite,
	InterviewTechnical,
	InterviewBehavioral,
}

// Valid reports whether t is one of the enumerated interview types.
func (t InterviewType) Valid() bool {
	for _, v := range InterviewTypes {
		if t == v {
			return true
		}
	}
	return false
}
