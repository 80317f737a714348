package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// RecordFields are the record fields shared by add and update. Pointer
// fields stay nil unless the flag was given.
type RecordFields struct {
	Company       *string `long:"company" description:"Company name"`
	Position      *string `long:"position" description:"Position title"`
	Status        *string `long:"status" description:"applied | interview | offered | accepted | rejected | stale"`
	Date          *string `long:"date" description:"Application date (YYYY-MM-DD)"`
	URL           *string `long:"url" description:"Job posting URL"`
	Notes         *string `long:"notes" description:"Free-form notes"`
	Salary        *string `long:"salary" description:"Salary range"`
	Location      *string `long:"location" description:"Job location"`
	JobType       *string `long:"job-type" description:"full-time | part-time | contract | internship | remote"`
	Interview     *string `long:"interview" description:"Interview date and time (RFC 3339 or YYYY-MM-DD HH:MM)"`
	InterviewType *string `long:"interview-type" description:"phone | video | onsite | technical | behavioral"`
	FollowUp      *string `long:"follow-up" description:"Follow-up date and time"`
	ContactName   *string `long:"contact-name" description:"Contact name"`
	ContactEmail  *string `long:"contact-email" description:"Contact email"`
	ContactPhone  *string `long:"contact-phone" description:"Contact phone"`
}

// AddCommand records a new application.
type AddCommand struct {
	RecordFields

	globals *GlobalFlags
	version string
}

// CaptureCommand records an application detected on a job board.
type CaptureCommand struct {
	Company  string `long:"company" description:"Company name (required)"`
	Position string `long:"position" description:"Position title (required)"`
	URL      string `long:"url" description:"Job posting URL"`

	globals *GlobalFlags
	version string
}

// UpdateCommand merges the given fields into an existing application.
type UpdateCommand struct {
	ID             string `long:"id" description:"Application ID (required)"`
	ClearInterview bool   `long:"clear-interview" description:"Remove the interview date"`
	ClearFollowUp  bool   `long:"clear-follow-up" description:"Remove the follow-up date"`
	RecordFields

	globals *GlobalFlags
	version string
}

// DeleteCommand removes an application.
type DeleteCommand struct {
	ID string `long:"id" description:"Application ID (required)"`

	globals *GlobalFlags
	version string
}

// ShowCommand prints one application.
type ShowCommand struct {
	ID     string `long:"id" description:"Application ID (required)"`
	Format string `long:"format" description:"Output format: full | md | json" default:"full"`

	globals *GlobalFlags
	version string
}

// ListCommand lists applications matching every given filter.
type ListCommand struct {
	Status        string `long:"status" description:"Filter by status, or all" default:"all"`
	Since         string `long:"since" description:"Applied on or after date (YYYY-MM-DD) or duration ago (e.g., 30d, 2w)"`
	Until         string `long:"until" description:"Applied on or before date (YYYY-MM-DD) or duration ago"`
	Company       string `long:"company" description:"Company name contains (case-insensitive)"`
	JobType       string `long:"job-type" description:"Filter by job type"`
	Location      string `long:"location" description:"Location contains (case-insensitive)"`
	HasInterview  bool   `long:"has-interview" description:"Only applications with an interview date"`
	NeedsFollowUp bool   `long:"needs-follow-up" description:"Only applications with a due follow-up"`
	Limit         int    `long:"limit" description:"Maximum results (0 for all)" default:"0"`
	Offset        int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// StatsCommand prints aggregate counts and rates.
type StatsCommand struct {
	globals *GlobalFlags
	version string
}

// UpcomingCommand lists interviews from now on.
type UpcomingCommand struct {
	globals *GlobalFlags
	version string
}

// FollowUpsCommand lists due follow-ups.
type FollowUpsCommand struct {
	globals *GlobalFlags
	version string
}

// StatusCommand shows mode, session and local database health.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ModeCommand shows or sets the storage mode.
type ModeCommand struct {
	Args struct {
		Mode string `positional-arg-name:"mode" description:"local | remote"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// SignInCommand stores a session token.
type SignInCommand struct {
	Token string `long:"token" description:"Signed session token from the OAuth flow (required)"`

	globals *GlobalFlags
	version string
}

// SignOutCommand ends the session.
type SignOutCommand struct {
	globals *GlobalFlags
	version string
}

// WhoAmICommand prints the signed-in user.
type WhoAmICommand struct {
	globals *GlobalFlags
	version string
}

// ProfileCommand shows the profile, or updates the given fields.
type ProfileCommand struct {
	FirstName *string           `long:"first-name" description:"First name"`
	LastName  *string           `long:"last-name" description:"Last name"`
	Email     *string           `long:"email" description:"Email address"`
	Phone     *string           `long:"phone" description:"Phone number"`
	Salary    *string           `long:"salary" description:"Salary expectation"`
	Location  *string           `long:"location" description:"Preferred location"`
	Pref      map[string]string `long:"pref" description:"Preference key:value (repeatable)"`

	globals *GlobalFlags
	version string
}

// ResumeCommand uploads or shows the stored resume.
type ResumeCommand struct {
	File string `long:"file" description:"Resume file to upload; omit to show the stored one"`
	Type string `long:"type" description:"MIME type (detected from the extension when empty)"`

	globals *GlobalFlags
	version string
}

// ExportCommand writes the profile export document.
type ExportCommand struct {
	Out string `long:"out" description:"Output file (stdout when empty)"`

	globals *GlobalFlags
	version string
}

// ImportCommand reads a profile export document.
type ImportCommand struct {
	In string `long:"in" description:"Input file (required)"`

	globals *GlobalFlags
	version string
}

// MigrateCommand copies local applications to the remote store.
type MigrateCommand struct {
	Switch bool `long:"switch" description:"Switch to remote mode after a complete migration"`

	globals *GlobalFlags
	version string
}

// SyncCommand refreshes the record set from the active store.
type SyncCommand struct {
	Watch bool `long:"watch" description:"Keep running, repeating every sync interval"`

	globals *GlobalFlags
	version string
}

// StaleCommand marks old unanswered applications as stale, once.
type StaleCommand struct {
	OlderThan string `long:"older-than" description:"Override stale threshold (e.g., 30d)"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes all local data with a safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
}
