package record

import (
	"strings"
	"time"
)

// Profile holds the user's contact details and preferences. It is kept on
// the device and never written to the remote store.
type Profile struct {
	FirstName   string            `json:"firstName,omitempty"`
	LastName    string            `json:"lastName,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Salary      string            `json:"salary,omitempty"`
	Location    string            `json:"location,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Resume is an uploaded resume file.
type Resume struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Content    []byte    `json:"content"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Settings are the user-facing toggles carried by export documents.
type Settings struct {
	AutoSync bool `json:"autoSync"`
	DarkMode bool `json:"darkMode"`
}

// Capture is an application detected on a job board page.
type Capture struct {
	Company  string `json:"company"`
	Position string `json:"position"`
	URL      string `json:"url,omitempty"`
}

// Application converts the capture into a candidate record with status applied.
func (c Capture) Application() Application {
	return Application{
		CompanyName: c.Company,
		Position:    c.Position,
		JobURL:      c.URL,
		Status:      StatusApplied,
	}
}
