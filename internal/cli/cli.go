package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Add       *AddCommand
	Capture   *CaptureCommand
	Update    *UpdateCommand
	Delete    *DeleteCommand
	Show      *ShowCommand
	List      *ListCommand
	Stats     *StatsCommand
	Upcoming  *UpcomingCommand
	FollowUps *FollowUpsCommand
	Status    *StatusCommand
	Mode      *ModeCommand
	SignIn    *SignInCommand
	SignOut   *SignOutCommand
	WhoAmI    *WhoAmICommand
	Profile   *ProfileCommand
	Resume    *ResumeCommand
	Export    *ExportCommand
	Import    *ImportCommand
	Migrate   *MigrateCommand
	Sync      *SyncCommand
	Stale     *StaleCommand
	Purge     *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	// Errors are returned to main for printing, so PrintErrors is left out.
	parser := goflags.NewParser(&globals, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = "jobtrail"
	parser.LongDescription = "Track job applications on this device or in your remote account."

	cmds := &commands{
		Add:       &AddCommand{globals: &globals, version: version},
		Capture:   &CaptureCommand{globals: &globals, version: version},
		Update:    &UpdateCommand{globals: &globals, version: version},
		Delete:    &DeleteCommand{globals: &globals, version: version},
		Show:      &ShowCommand{globals: &globals, version: version},
		List:      &ListCommand{globals: &globals, version: version},
		Stats:     &StatsCommand{globals: &globals, version: version},
		Upcoming:  &UpcomingCommand{globals: &globals, version: version},
		FollowUps: &FollowUpsCommand{globals: &globals, version: version},
		Status:    &StatusCommand{globals: &globals, version: version},
		Mode:      &ModeCommand{globals: &globals, version: version},
		SignIn:    &SignInCommand{globals: &globals, version: version},
		SignOut:   &SignOutCommand{globals: &globals, version: version},
		WhoAmI:    &WhoAmICommand{globals: &globals, version: version},
		Profile:   &ProfileCommand{globals: &globals, version: version},
		Resume:    &ResumeCommand{globals: &globals, version: version},
		Export:    &ExportCommand{globals: &globals, version: version},
		Import:    &ImportCommand{globals: &globals, version: version},
		Migrate:   &MigrateCommand{globals: &globals, version: version},
		Sync:      &SyncCommand{globals: &globals, version: version},
		Stale:     &StaleCommand{globals: &globals, version: version},
		Purge:     &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("add", "Record a new application", "Record a new job application. Status defaults to applied and the date to today.", cmds.Add)
	parser.AddCommand("capture", "Record an application from a job board", "Record an application detected on a job board page.", cmds.Capture)
	parser.AddCommand("update", "Update fields of an application", "Merge the given fields into an existing application.", cmds.Update)
	parser.AddCommand("delete", "Delete an application", "Delete an application. Deleting an unknown id is not an error.", cmds.Delete)
	parser.AddCommand("show", "Print one application", "Print every field of a single application.", cmds.Show)
	parser.AddCommand("list", "List applications", "List applications, most recent first, filtered by every given criterion.", cmds.List)
	parser.AddCommand("stats", "Show application statistics", "Show totals, breakdowns and interview/offer rates.", cmds.Stats)
	parser.AddCommand("upcoming", "List upcoming interviews", "List interviews scheduled from now on, soonest first.", cmds.Upcoming)
	parser.AddCommand("followups", "List due follow-ups", "List applications whose follow-up date has passed, oldest first.", cmds.FollowUps)
	parser.AddCommand("status", "Show storage status", "Show storage mode, session and local database statistics.", cmds.Status)
	parser.AddCommand("mode", "Show or set the storage mode", "Show the storage mode, or switch between local and remote.", cmds.Mode)
	parser.AddCommand("signin", "Sign in with a session token", "Store the session token handed over by the OAuth flow.", cmds.SignIn)
	parser.AddCommand("signout", "Sign out", "Forget the stored session token.", cmds.SignOut)
	parser.AddCommand("whoami", "Print the signed-in user", "Print the signed-in user, if any.", cmds.WhoAmI)
	parser.AddCommand("profile", "Show or edit the profile", "Show the profile, or update the given fields.", cmds.Profile)
	parser.AddCommand("resume", "Upload or show the resume", "Upload a resume file, or show the stored one.", cmds.Resume)
	parser.AddCommand("export", "Export profile and settings", "Write profile and settings as a JSON export document.", cmds.Export)
	parser.AddCommand("import", "Import profile and settings", "Read a JSON export document. Nothing is stored unless the whole document is valid.", cmds.Import)
	parser.AddCommand("migrate", "Copy local applications to the remote store", "Copy every local application to the signed-in account. Local data is kept.", cmds.Migrate)
	parser.AddCommand("sync", "Refresh from the active store", "Re-read every application from the active store and record the sync time. Records are never changed.", cmds.Sync)
	parser.AddCommand("stale", "Mark stale applications", "Mark applications still in applied status past the stale threshold as stale.", cmds.Stale)
	parser.AddCommand("purge", "Delete ALL local data", "Delete ALL local jobtrail data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the jobtrail CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("jobtrail %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				fmt.Println(flagsErr.Message)
				return nil
			}
		}
		return err
	}

	return nil
}
