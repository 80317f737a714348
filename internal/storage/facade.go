package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/jobtrail/internal/auth"
	"github.com/runnerr0/jobtrail/internal/notify"
	"github.com/runnerr0/jobtrail/internal/query"
	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/stats"
	"github.com/runnerr0/jobtrail/internal/transfer"
)

var errNoRemote = errors.New("no remote database configured")

// Options wires a Facade. Remote and Auth may be nil; remote mode then
// fails every record operation.
type Options struct {
	Slots              SlotStore
	Remote             ApplicationStore
	Auth               auth.Provider
	Notifier           notify.Notifier
	Logger             *zap.Logger
	Now                func() time.Time
	MigrateConcurrency int
}

// Facade is the single entry point for callers. It holds the storage mode
// and resolves the backend once per call.
type Facade struct {
	slots       SlotStore
	local       *LocalApplications
	remote      ApplicationStore
	auth        auth.Provider
	notifier    notify.Notifier
	log         *zap.Logger
	now         func() time.Time
	concurrency int

	mode atomic.Value // Mode
}

// backend is the adapter selected for one call.
type backend struct {
	mode  Mode
	store ApplicationStore
	owner string
}

// NewFacade builds a Facade and reads the persisted storage mode. A missing
// or unrecognised mode value means local.
func NewFacade(ctx context.Context, opts Options) (*Facade, error) {
	if opts.Slots == nil {
		return nil, fmt.Errorf("facade: slot store is required")
	}
	f := &Facade{
		slots:       opts.Slots,
		remote:      opts.Remote,
		auth:        opts.Auth,
		notifier:    opts.Notifier,
		log:         opts.Logger,
		now:         opts.Now,
		concurrency: opts.MigrateConcurrency,
	}
	if f.notifier == nil {
		f.notifier = notify.Discard
	}
	if f.log == nil {
		f.log = zap.NewNop()
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.concurrency < 1 {
		f.concurrency = 4
	}
	f.local = NewLocalApplications(opts.Slots).WithClock(f.now)

	var stored string
	if _, err := getJSON(ctx, f.slots, SlotStorageMode, &stored); err != nil {
		return nil, fmt.Errorf("read storage mode: %w", err)
	}
	mode, err := ParseMode(stored)
	if err != nil {
		if stored != "" {
			f.log.Warn("ignoring stored storage mode", zap.String("value", stored))
		}
		mode = ModeLocal
	}
	f.mode.Store(mode)
	return f, nil
}

// Mode returns the current storage mode.
func (f *Facade) Mode() Mode {
	return f.mode.Load().(Mode)
}

// SetMode persists m and then switches to it. Calls already in flight keep
// the backend they resolved.
func (f *Facade) SetMode(ctx context.Context, m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("unknown storage mode %q", m)
	}
	if err := setJSON(ctx, f.slots, SlotStorageMode, string(m)); err != nil {
		f.log.Warn("persist storage mode failed", zap.String("mode", string(m)), zap.Error(err))
		return err
	}
	prev := f.Mode()
	f.mode.Store(m)
	f.log.Debug("storage mode changed", zap.String("from", string(prev)), zap.String("to", string(m)))
	f.notifier.Notify(notify.Event{Kind: notify.ModeChanged, Message: string(m), At: f.now()})
	return nil
}

// sessionOwner returns the signed-in user's id or ErrUnauthenticated.
func (f *Facade) sessionOwner(ctx context.Context) (string, error) {
	if f.auth == nil {
		return "", ErrUnauthenticated
	}
	user, err := f.auth.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if user == nil || user.ID == "" {
		return "", ErrUnauthenticated
	}
	return user.ID, nil
}

// resolve selects the backend for the mode current at invocation time.
func (f *Facade) resolve(ctx context.Context) (backend, error) {
	mode := f.Mode()
	if mode == ModeLocal {
		return backend{mode: ModeLocal, store: f.local, owner: LocalOwner}, nil
	}
	owner, err := f.sessionOwner(ctx)
	if err != nil {
		return backend{mode: mode}, err
	}
	if f.remote == nil {
		return backend{mode: mode}, remote("resolve", errNoRemote)
	}
	return backend{mode: ModeRemote, store: f.remote, owner: owner}, nil
}

// guardLocalSlot rejects device-slot writes and reads in remote mode
// without a session.
func (f *Facade) guardLocalSlot(ctx context.Context) error {
	if f.Mode() != ModeRemote {
		return nil
	}
	_, err := f.sessionOwner(ctx)
	return err
}

func (f *Facade) fail(mode Mode, op string, err error) error {
	f.log.Warn("storage operation failed",
		zap.String("mode", string(mode)),
		zap.String("op", op),
		zap.Error(err),
	)
	if IsRetryable(err) {
		f.notifier.Notify(notify.Event{Kind: notify.SyncError, Message: err.Error(), At: f.now()})
	}
	return err
}

// SaveProfile stores the profile on the device.
func (f *Facade) SaveProfile(ctx context.Context, p record.Profile) error {
	if err := f.guardLocalSlot(ctx); err != nil {
		return f.fail(f.Mode(), "saveProfile", err)
	}
	if err := setJSON(ctx, f.slots, SlotProfile, p); err != nil {
		return f.fail(f.Mode(), "saveProfile", err)
	}
	f.log.Debug("profile saved")
	return nil
}

// LoadProfile returns the stored profile, or nil when there is none or it
// cannot be read.
func (f *Facade) LoadProfile(ctx context.Context) (*record.Profile, error) {
	if err := f.guardLocalSlot(ctx); err != nil {
		return nil, err
	}
	var p record.Profile
	ok, err := getJSON(ctx, f.slots, SlotProfile, &p)
	if err != nil {
		f.log.Debug("load profile failed", zap.Error(err))
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SaveResume stores the resume on the device.
func (f *Facade) SaveResume(ctx context.Context, r record.Resume) error {
	if err := f.guardLocalSlot(ctx); err != nil {
		return f.fail(f.Mode(), "saveResume", err)
	}
	if r.UploadedAt.IsZero() {
		r.UploadedAt = record.NormalizeTime(f.now())
	}
	if err := setJSON(ctx, f.slots, SlotResume, r); err != nil {
		return f.fail(f.Mode(), "saveResume", err)
	}
	f.log.Debug("resume saved", zap.String("name", r.Name), zap.Int("bytes", len(r.Content)))
	return nil
}

// LoadResume returns the stored resume, or nil.
func (f *Facade) LoadResume(ctx context.Context) (*record.Resume, error) {
	if err := f.guardLocalSlot(ctx); err != nil {
		return nil, err
	}
	var r record.Resume
	ok, err := getJSON(ctx, f.slots, SlotResume, &r)
	if err != nil {
		f.log.Debug("load resume failed", zap.Error(err))
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// SaveSettings stores the user toggles.
func (f *Facade) SaveSettings(ctx context.Context, s record.Settings) error {
	if err := f.guardLocalSlot(ctx); err != nil {
		return f.fail(f.Mode(), "saveSettings", err)
	}
	if err := setJSON(ctx, f.slots, SlotSettings, s); err != nil {
		return f.fail(f.Mode(), "saveSettings", err)
	}
	return nil
}

// LoadSettings returns the stored toggles, or the zero value.
func (f *Facade) LoadSettings(ctx context.Context) (record.Settings, error) {
	if err := f.guardLocalSlot(ctx); err != nil {
		return record.Settings{}, err
	}
	var s record.Settings
	if _, err := getJSON(ctx, f.slots, SlotSettings, &s); err != nil {
		f.log.Debug("load settings failed", zap.Error(err))
		return record.Settings{}, nil
	}
	return s, nil
}

// ExportDocument encodes the profile and settings as an export document.
func (f *Facade) ExportDocument(ctx context.Context) ([]byte, error) {
	profile, err := f.LoadProfile(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := f.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	doc := transfer.Document{Settings: settings}
	if profile != nil {
		doc.Profile = *profile
	}
	return transfer.Export(doc)
}

// ImportDocument validates data and, only if it is valid, stores its
// profile and settings together. A failed write leaves both slots as they
// were.
func (f *Facade) ImportDocument(ctx context.Context, data []byte) error {
	doc, err := transfer.Import(data)
	if err != nil {
		return err
	}
	if err := f.guardLocalSlot(ctx); err != nil {
		return f.fail(f.Mode(), "import", err)
	}
	profile, err := json.Marshal(doc.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	settings, err := json.Marshal(doc.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := setSlots(ctx, f.slots, []SlotWrite{
		{Key: SlotProfile, Value: profile},
		{Key: SlotSettings, Value: settings},
	}); err != nil {
		return f.fail(f.Mode(), "import", err)
	}
	f.log.Debug("profile and settings imported")
	return nil
}

// SaveApplications writes a whole record set. In local mode the slot is
// replaced; in remote mode each record is inserted, and a failure part way
// leaves the earlier inserts in place.
func (f *Facade) SaveApplications(ctx context.Context, apps []record.Application) error {
	now := f.now()
	prepared := make([]record.Application, 0, len(apps))
	for _, app := range apps {
		app = record.Normalize(app)
		if app.CreatedAt.IsZero() {
			app.CreatedAt = record.NormalizeTime(now)
		}
		if app.UpdatedAt.IsZero() {
			app.UpdatedAt = app.CreatedAt
		}
		if err := record.Validate(app); err != nil {
			return err
		}
		prepared = append(prepared, app)
	}
	if err := record.CheckUniqueIDs(prepared); err != nil {
		return err
	}

	b, err := f.resolve(ctx)
	if err != nil {
		return f.fail(b.mode, "saveApplications", err)
	}

	if b.mode == ModeLocal {
		for i := range prepared {
			if prepared[i].ID == "" {
				prepared[i].ID = f.local.newID()
			}
			prepared[i].OwnerID = LocalOwner
		}
		if err := f.local.ReplaceAll(ctx, prepared); err != nil {
			return f.fail(b.mode, "saveApplications", err)
		}
	} else {
		for _, app := range prepared {
			if _, err := b.store.Insert(ctx, b.owner, app); err != nil {
				return f.fail(b.mode, "saveApplications", err)
			}
		}
	}
	f.log.Debug("applications saved", zap.String("mode", string(b.mode)), zap.Int("count", len(prepared)))
	return nil
}

// LoadApplications returns every record of the active owner, most recent first.
func (f *Facade) LoadApplications(ctx context.Context) ([]record.Application, error) {
	return f.GetApplications(ctx, query.Criteria{})
}

// RecordApplication validates and stores a new record.
func (f *Facade) RecordApplication(ctx context.Context, app record.Application) (record.Application, error) {
	if _, err := record.New(app, f.now()); err != nil {
		return record.Application{}, err
	}

	b, err := f.resolve(ctx)
	if err != nil {
		return record.Application{}, f.fail(b.mode, "recordApplication", err)
	}
	stored, err := b.store.Insert(ctx, b.owner, app)
	if err != nil {
		return record.Application{}, f.fail(b.mode, "recordApplication", err)
	}

	f.log.Debug("application recorded",
		zap.String("mode", string(b.mode)),
		zap.String("id", stored.ID),
		zap.String("company", stored.CompanyName),
	)
	f.notifier.Notify(notify.Event{
		Kind:          notify.ApplicationRecorded,
		ApplicationID: stored.ID,
		Message:       stored.CompanyName + " / " + stored.Position,
		At:            f.now(),
	})
	return stored, nil
}

// RecordCapture stores an application detected on a job board.
func (f *Facade) RecordCapture(ctx context.Context, c record.Capture) (record.Application, error) {
	return f.RecordApplication(ctx, c.Application())
}

// UpdateApplication merges p into record id.
func (f *Facade) UpdateApplication(ctx context.Context, id string, p record.Patch) (record.Application, error) {
	if err := p.Validate(); err != nil {
		return record.Application{}, err
	}

	b, err := f.resolve(ctx)
	if err != nil {
		return record.Application{}, f.fail(b.mode, "updateApplication", err)
	}
	updated, err := b.store.Update(ctx, b.owner, id, p)
	if err != nil {
		return record.Application{}, f.fail(b.mode, "updateApplication", err)
	}

	f.log.Debug("application updated", zap.String("mode", string(b.mode)), zap.String("id", id))
	f.notifier.Notify(notify.Event{Kind: notify.ApplicationUpdated, ApplicationID: id, At: f.now()})
	return updated, nil
}

// DeleteApplication removes record id. Deleting an absent id is not an
// error in either mode; the bool reports whether a record was removed.
func (f *Facade) DeleteApplication(ctx context.Context, id string) (bool, error) {
	b, err := f.resolve(ctx)
	if err != nil {
		return false, f.fail(b.mode, "deleteApplication", err)
	}
	if err := b.store.Remove(ctx, b.owner, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			f.log.Debug("delete of absent application", zap.String("mode", string(b.mode)), zap.String("id", id))
			return false, nil
		}
		return false, f.fail(b.mode, "deleteApplication", err)
	}

	f.log.Debug("application deleted", zap.String("mode", string(b.mode)), zap.String("id", id))
	f.notifier.Notify(notify.Event{Kind: notify.ApplicationDeleted, ApplicationID: id, At: f.now()})
	return true, nil
}

// GetApplications returns the active owner's records matching c. Records
// are loaded fresh on every call.
func (f *Facade) GetApplications(ctx context.Context, c query.Criteria) ([]record.Application, error) {
	b, err := f.resolve(ctx)
	if err != nil {
		return nil, f.fail(b.mode, "getApplications", err)
	}
	apps, err := b.store.Query(ctx, b.owner, c)
	if err != nil {
		return nil, f.fail(b.mode, "getApplications", err)
	}
	return query.Filter(apps, c, f.now()), nil
}

// GetApplicationStats aggregates over every record of the active owner.
func (f *Facade) GetApplicationStats(ctx context.Context) (stats.Stats, error) {
	apps, err := f.LoadApplications(ctx)
	if err != nil {
		return stats.Stats{}, err
	}
	return stats.Compute(apps), nil
}

// GetUpcomingInterviews lists interviews from now on, soonest first.
func (f *Facade) GetUpcomingInterviews(ctx context.Context) ([]record.Application, error) {
	apps, err := f.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	return stats.UpcomingInterviews(apps, f.now()), nil
}

// GetFollowUpsNeeded lists due follow-ups, oldest first.
func (f *Facade) GetFollowUpsNeeded(ctx context.Context) ([]record.Application, error) {
	apps, err := f.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	return stats.FollowUpsNeeded(apps, f.now()), nil
}

// SignIn hands token to the auth collaborator.
func (f *Facade) SignIn(ctx context.Context, token string) (*auth.Session, error) {
	if f.auth == nil {
		return nil, fmt.Errorf("sign in: no auth provider configured")
	}
	session, err := f.auth.SignIn(ctx, token)
	if err != nil {
		f.log.Warn("sign in failed", zap.Error(err))
		return nil, err
	}
	f.log.Debug("signed in", zap.String("user", session.User.ID))
	return session, nil
}

// SignOut ends the session.
func (f *Facade) SignOut(ctx context.Context) error {
	if f.auth == nil {
		return nil
	}
	if err := f.auth.SignOut(ctx); err != nil {
		f.log.Warn("sign out failed", zap.Error(err))
		return err
	}
	f.log.Debug("signed out")
	return nil
}

// CurrentUser returns the signed-in user, or nil when there is none or the
// session cannot be read.
func (f *Facade) CurrentUser(ctx context.Context) *auth.User {
	if f.auth == nil {
		return nil
	}
	user, err := f.auth.CurrentUser(ctx)
	if err != nil {
		f.log.Debug("current user lookup failed", zap.Error(err))
		return nil
	}
	return user
}

// SyncState is what the last sync pass saw.
type SyncState struct {
	Mode         Mode      `json:"mode"`
	Applications int       `json:"applications"`
	LastSynced   time.Time `json:"lastSynced"`
}

// Sync re-reads the active owner's record set from its backend and stamps
// the sync slot. It never writes a record.
func (f *Facade) Sync(ctx context.Context) (SyncState, error) {
	b, err := f.resolve(ctx)
	if err != nil {
		return SyncState{}, f.fail(b.mode, "sync", err)
	}
	apps, err := b.store.Query(ctx, b.owner, query.Criteria{})
	if err != nil {
		return SyncState{}, f.fail(b.mode, "sync", err)
	}

	state := SyncState{Mode: b.mode, Applications: len(apps), LastSynced: record.NormalizeTime(f.now())}
	if err := setJSON(ctx, f.slots, SlotSync, state); err != nil {
		return SyncState{}, f.fail(b.mode, "sync", err)
	}
	f.log.Debug("sync complete", zap.String("mode", string(b.mode)), zap.Int("applications", state.Applications))
	return state, nil
}

// LastSync returns the state stamped by the previous Sync, or nil when
// there was none or it cannot be read.
func (f *Facade) LastSync(ctx context.Context) *SyncState {
	var state SyncState
	ok, err := getJSON(ctx, f.slots, SlotSync, &state)
	if err != nil {
		f.log.Debug("load sync state failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &state
}

// MarkStale moves records still in status applied whose application date
// is older than olderThan to stale. It returns how many were changed.
// It runs only when the user asks for it, never on a timer. Records are
// updated one by one; a concurrent edit of the same record may be
// overwritten.
func (f *Facade) MarkStale(ctx context.Context, olderThan time.Duration) (int, error) {
	b, err := f.resolve(ctx)
	if err != nil {
		return 0, f.fail(b.mode, "markStale", err)
	}
	apps, err := b.store.Query(ctx, b.owner, query.Criteria{Status: string(record.StatusApplied)})
	if err != nil {
		return 0, f.fail(b.mode, "markStale", err)
	}

	cutoff := record.DateOf(f.now().Add(-olderThan))
	changed := 0
	for _, app := range apps {
		if app.Status != record.StatusApplied || !app.ApplicationDate.Before(cutoff) {
			continue
		}
		if _, err := b.store.Update(ctx, b.owner, app.ID, record.StatusPatch(record.StatusStale)); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return changed, f.fail(b.mode, "markStale", err)
		}
		changed++
		f.notifier.Notify(notify.Event{Kind: notify.ApplicationUpdated, ApplicationID: app.ID, Message: "stale", At: f.now()})
	}

	f.log.Debug("stale applications marked", zap.String("mode", string(b.mode)), zap.Int("count", changed))
	return changed, nil
}

// MigrateLocalToRemote copies the device's records to the signed-in
// owner's remote store. The local slot is left untouched. It returns the
// number of records inserted, which is accurate even when an insert fails.
func (f *Facade) MigrateLocalToRemote(ctx context.Context) (int, error) {
	owner, err := f.sessionOwner(ctx)
	if err != nil {
		return 0, f.fail(ModeRemote, "migrate", err)
	}
	if f.remote == nil {
		return 0, f.fail(ModeRemote, "migrate", remote("migrate", errNoRemote))
	}

	apps, err := f.local.Query(ctx, LocalOwner, query.Criteria{})
	if err != nil {
		return 0, f.fail(ModeLocal, "migrate", err)
	}

	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, app := range apps {
		g.Go(func() error {
			if _, err := f.remote.Insert(gctx, owner, app); err != nil {
				return fmt.Errorf("migrate %s: %w", app.ID, err)
			}
			inserted.Add(1)
			return nil
		})
	}
	err = g.Wait()

	n := int(inserted.Load())
	if err != nil {
		return n, f.fail(ModeRemote, "migrate", err)
	}
	f.log.Info("local applications migrated", zap.Int("count", n))
	return n, nil
}
