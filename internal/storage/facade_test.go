package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/runnerr0/jobtrail/internal/auth"
	"github.com/runnerr0/jobtrail/internal/notify"
	"github.com/runnerr0/jobtrail/internal/query"
	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/transfer"
)

const testUserID = "6f1c2a9e-4b1d-4c55-9a53-2f0f1f2c7d11"

// fakeRemote is an in-memory remote store. It keeps records the same way
// the local adapter does, in its own slots, and rejects calls without an owner.
type fakeRemote struct {
	*LocalApplications
	mu         sync.Mutex
	failInsert error
	failAfter  int32
	inserts    atomic.Int32
}

func newFakeRemote(clock *fixedClock) *fakeRemote {
	return &fakeRemote{LocalApplications: NewLocalApplications(newMemSlots()).WithClock(clock.Now)}
}

func (r *fakeRemote) Insert(ctx context.Context, owner string, app record.Application) (record.Application, error) {
	if owner == "" {
		return record.Application{}, ErrUnauthenticated
	}
	n := r.inserts.Add(1)
	if r.failInsert != nil && n > r.failAfter {
		return record.Application{}, remote("insert", r.failInsert)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.LocalApplications.Insert(ctx, owner, app)
}

type facadeFixture struct {
	facade *Facade
	slots  *memSlots
	remote *fakeRemote
	auth   *auth.TokenProvider
	clock  *fixedClock

	mu     sync.Mutex
	events []notify.Event
}

func newFacadeFixture(t *testing.T) *facadeFixture {
	t.Helper()
	fx := &facadeFixture{
		slots: newMemSlots(),
		clock: &fixedClock{t: testNow},
	}
	fx.remote = newFakeRemote(fx.clock)
	fx.auth = auth.NewTokenProvider(sessionSlot{slots: fx.slots}, auth.Config{
		Secret: "test-secret",
		Issuer: "jobtrail",
	}).WithClock(fx.clock.Now)

	f, err := NewFacade(context.Background(), Options{
		Slots:  fx.slots,
		Remote: fx.remote,
		Auth:   fx.auth,
		Notifier: notify.Func(func(ev notify.Event) {
			fx.mu.Lock()
			fx.events = append(fx.events, ev)
			fx.mu.Unlock()
		}),
		Logger: zap.NewNop(),
		Now:    fx.clock.Now,
	})
	require.NoError(t, err)
	fx.facade = f
	return fx
}

func (fx *facadeFixture) signIn(t *testing.T) {
	t.Helper()
	token, err := fx.auth.Issue(testUserID, "ada@example.com", time.Hour)
	require.NoError(t, err)
	_, err = fx.facade.SignIn(context.Background(), token)
	require.NoError(t, err)
}

func (fx *facadeFixture) kinds() []notify.Kind {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	out := make([]notify.Kind, len(fx.events))
	for i, ev := range fx.events {
		out[i] = ev.Kind
	}
	return out
}

func (fx *facadeFixture) record(t *testing.T, app record.Application) record.Application {
	t.Helper()
	stored, err := fx.facade.RecordApplication(context.Background(), app)
	require.NoError(t, err)
	return stored
}

// --- Mode ---

func TestFacade_DefaultsToLocalMode(t *testing.T) {
	fx := newFacadeFixture(t)
	assert.Equal(t, ModeLocal, fx.facade.Mode())
}

func TestFacade_ReadsPersistedMode(t *testing.T) {
	tests := []struct {
		stored string
		want   Mode
	}{
		{`"remote"`, ModeRemote},
		{`"local"`, ModeLocal},
		{`"cloud"`, ModeLocal},
	}
	for _, tc := range tests {
		t.Run(tc.stored, func(t *testing.T) {
			slots := newMemSlots()
			slots.data[SlotStorageMode] = []byte(tc.stored)

			f, err := NewFacade(context.Background(), Options{Slots: slots})
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.Mode())
		})
	}
}

func TestFacade_SetModePersists(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.facade.SetMode(ctx, ModeRemote))
	assert.Equal(t, ModeRemote, fx.facade.Mode())
	assert.Equal(t, `"remote"`, string(fx.slots.data[SlotStorageMode]))
	assert.Equal(t, []notify.Kind{notify.ModeChanged}, fx.kinds())

	// A new facade over the same slots picks the mode up.
	f2, err := NewFacade(ctx, Options{Slots: fx.slots})
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, f2.Mode())

	assert.Error(t, fx.facade.SetMode(ctx, Mode("cloud")))
	assert.Equal(t, ModeRemote, fx.facade.Mode())
}

func TestFacade_SetModeFailureKeepsMode(t *testing.T) {
	fx := newFacadeFixture(t)
	fx.slots.failSet = errDiskFull

	err := fx.facade.SetMode(context.Background(), ModeRemote)
	require.Error(t, err)
	assert.Equal(t, ModeLocal, fx.facade.Mode())
}

// --- Record model enforcement ---

func TestFacade_RecordRejectsInvalid(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	cases := []record.Application{
		{CompanyName: "", Position: "SRE"},
		{CompanyName: "Acme", Position: "   "},
		{CompanyName: "Acme", Position: "SRE", Status: "ghosted"},
	}
	for _, app := range cases {
		_, err := fx.facade.RecordApplication(ctx, app)
		var verr *record.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.False(t, IsRetryable(err))
	}
	assert.Zero(t, fx.slots.writeCount(SlotApplications))
	assert.Empty(t, fx.kinds())
}

// --- Statistics scenarios ---

func TestFacade_StatsOnEmptySet(t *testing.T) {
	fx := newFacadeFixture(t)

	s, err := fx.facade.GetApplicationStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.InterviewRate)
	assert.Zero(t, s.OfferRate)
	assert.NotNil(t, s.ByStatus)
	assert.Empty(t, s.ByStatus)
}

func TestFacade_ThreeStatusScenario(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	fx.record(t, record.Application{CompanyName: "A", Position: "p", Status: record.StatusApplied})
	b := fx.record(t, record.Application{CompanyName: "B", Position: "p", Status: record.StatusInterview})
	fx.record(t, record.Application{CompanyName: "C", Position: "p", Status: record.StatusOffered})

	s, err := fx.facade.GetApplicationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 33.3, s.InterviewRate)
	assert.Equal(t, 33.3, s.OfferRate)
	assert.Equal(t, map[record.Status]int{
		record.StatusApplied:   1,
		record.StatusInterview: 1,
		record.StatusOffered:   1,
	}, s.ByStatus)

	got, err := fx.facade.GetApplications(ctx, query.Criteria{Status: "interview"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
}

func TestFacade_FollowUpsNeeded(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	yesterday := testNow.Add(-24 * time.Hour)
	tomorrow := testNow.Add(24 * time.Hour)
	due := fx.record(t, record.Application{CompanyName: "Due", Position: "p", FollowUpDate: &yesterday})
	fx.record(t, record.Application{CompanyName: "Later", Position: "p", FollowUpDate: &tomorrow})

	got, err := fx.facade.GetFollowUpsNeeded(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
}

func TestFacade_UpcomingInterviews(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	past := testNow.Add(-time.Hour)
	soon := testNow.Add(2 * time.Hour)
	later := testNow.Add(72 * time.Hour)
	fx.record(t, record.Application{CompanyName: "Past", Position: "p", InterviewDate: &past})
	l := fx.record(t, record.Application{CompanyName: "Later", Position: "p", InterviewDate: &later})
	s := fx.record(t, record.Application{CompanyName: "Soon", Position: "p", InterviewDate: &soon})

	got, err := fx.facade.GetUpcomingInterviews(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, s.ID, got[0].ID)
	assert.Equal(t, l.ID, got[1].ID)
}

// --- Update / delete ---

func TestFacade_UpdateScenario(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	_, err := fx.facade.UpdateApplication(ctx, "missing", record.StatusPatch(record.StatusRejected))
	assert.ErrorIs(t, err, ErrNotFound)

	app := fx.record(t, record.Application{CompanyName: "Acme", Position: "SRE", Notes: "n", Location: "Berlin"})
	fx.clock.Advance(time.Minute)

	updated, err := fx.facade.UpdateApplication(ctx, app.ID, record.StatusPatch(record.StatusRejected))
	require.NoError(t, err)

	want := app
	want.Status = record.StatusRejected
	want.UpdatedAt = testNow.Add(time.Minute)
	assert.Equal(t, want, updated)
	assert.Equal(t, []notify.Kind{notify.ApplicationRecorded, notify.ApplicationUpdated}, fx.kinds())
}

func TestFacade_DeleteIsIdempotentInBothModes(t *testing.T) {
	for _, mode := range []Mode{ModeLocal, ModeRemote} {
		t.Run(string(mode), func(t *testing.T) {
			fx := newFacadeFixture(t)
			ctx := context.Background()
			fx.signIn(t)
			require.NoError(t, fx.facade.SetMode(ctx, mode))

			app := fx.record(t, record.Application{CompanyName: "Acme", Position: "SRE"})

			removed, err := fx.facade.DeleteApplication(ctx, app.ID)
			require.NoError(t, err)
			assert.True(t, removed)

			removed, err = fx.facade.DeleteApplication(ctx, app.ID)
			require.NoError(t, err)
			assert.False(t, removed)
		})
	}
}

// --- Mode switch without a session ---

func TestFacade_RemoteWithoutSessionIsUnauthenticated(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.facade.SetMode(ctx, ModeRemote))

	_, err := fx.facade.RecordApplication(ctx, record.Application{CompanyName: "Acme", Position: "SRE"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = fx.facade.UpdateApplication(ctx, "x", record.StatusPatch(record.StatusStale))
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = fx.facade.DeleteApplication(ctx, "x")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = fx.facade.GetApplications(ctx, query.Criteria{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = fx.facade.LoadApplications(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = fx.facade.GetApplicationStats(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	err = fx.facade.SaveApplications(ctx, []record.Application{{CompanyName: "Acme", Position: "SRE", Status: record.StatusApplied, ApplicationDate: record.DateOf(testNow)}})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	err = fx.facade.SaveProfile(ctx, record.Profile{FirstName: "Ada"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = fx.facade.LoadProfile(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = fx.facade.MarkStale(ctx, time.Hour)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.Zero(t, fx.slots.writeCount(SlotApplications), "no local fallback write")
	assert.Zero(t, fx.slots.writeCount(SlotProfile))
	assert.Zero(t, fx.remote.inserts.Load())
}

func TestFacade_RemoteModeUsesSessionOwner(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	fx.signIn(t)
	require.NoError(t, fx.facade.SetMode(ctx, ModeRemote))

	interview := testNow.Add(24 * time.Hour)
	in := record.Application{
		CompanyName:   "Globex",
		Position:      "Backend",
		Status:        record.StatusInterview,
		Location:      "Remote",
		JobType:       record.JobTypeRemote,
		InterviewDate: &interview,
		InterviewType: record.InterviewPhone,
	}
	stored, err := fx.facade.RecordApplication(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, testUserID, stored.OwnerID)

	got, err := fx.facade.GetApplications(ctx, query.Criteria{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stored, got[0])
	assert.Zero(t, fx.slots.writeCount(SlotApplications))

	// Signing out drops back to unauthenticated without touching the mode.
	require.NoError(t, fx.facade.SignOut(ctx))
	assert.Equal(t, ModeRemote, fx.facade.Mode())
	_, err = fx.facade.GetApplications(ctx, query.Criteria{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestFacade_RemoteWithoutBackendIsRemoteError(t *testing.T) {
	slots := newMemSlots()
	clock := &fixedClock{t: testNow}
	provider := auth.NewTokenProvider(sessionSlot{slots: slots}, auth.Config{Secret: "s"}).WithClock(clock.Now)
	f, err := NewFacade(context.Background(), Options{Slots: slots, Auth: provider, Now: clock.Now})
	require.NoError(t, err)

	token, err := provider.Issue(testUserID, "", time.Hour)
	require.NoError(t, err)
	_, err = f.SignIn(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, f.SetMode(context.Background(), ModeRemote))

	_, err = f.GetApplications(context.Background(), query.Criteria{})
	var re *RemoteError
	assert.ErrorAs(t, err, &re)
}

// --- Loaders ---

func TestFacade_LoadersReturnNilOnFailure(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	p, err := fx.facade.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, fx.facade.SaveProfile(ctx, record.Profile{FirstName: "Ada"}))
	p, err = fx.facade.LoadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Ada", p.FirstName)

	fx.slots.failGet = errDiskFull
	p, err = fx.facade.LoadProfile(ctx)
	assert.NoError(t, err)
	assert.Nil(t, p)

	r, err := fx.facade.LoadResume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, r)

	assert.Nil(t, fx.facade.CurrentUser(ctx))
}

func TestFacade_ResumeRoundTrip(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.facade.SaveResume(ctx, record.Resume{
		Name:    "cv.pdf",
		Type:    "application/pdf",
		Content: []byte("%PDF-1.7"),
	}))

	r, err := fx.facade.LoadResume(ctx)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "cv.pdf", r.Name)
	assert.Equal(t, []byte("%PDF-1.7"), r.Content)
	assert.Equal(t, testNow, r.UploadedAt)
}

func TestFacade_CurrentUser(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	assert.Nil(t, fx.facade.CurrentUser(ctx))
	fx.signIn(t)

	u := fx.facade.CurrentUser(ctx)
	require.NotNil(t, u)
	assert.Equal(t, testUserID, u.ID)

	fx.clock.Advance(2 * time.Hour)
	assert.Nil(t, fx.facade.CurrentUser(ctx), "expired session")
}

// --- Bulk save / load ---

func TestFacade_SaveApplicationsReplacesLocalSet(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	fx.record(t, record.Application{CompanyName: "Old", Position: "p"})

	err := fx.facade.SaveApplications(ctx, []record.Application{
		{CompanyName: "New", Position: "p", Status: record.StatusApplied, ApplicationDate: mustDate("2026-05-01")},
		{ID: "keep-id", CompanyName: "Newer", Position: "p", Status: record.StatusOffered, ApplicationDate: mustDate("2026-05-02")},
	})
	require.NoError(t, err)

	got, err := fx.facade.LoadApplications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Newer", got[0].CompanyName)
	assert.Equal(t, "keep-id", got[0].ID)
	assert.Equal(t, "New", got[1].CompanyName)
	assert.NotEmpty(t, got[1].ID)
	assert.Equal(t, LocalOwner, got[1].OwnerID)
}

func TestFacade_SaveApplicationsValidatesEveryRecord(t *testing.T) {
	fx := newFacadeFixture(t)

	err := fx.facade.SaveApplications(context.Background(), []record.Application{
		{CompanyName: "Ok", Position: "p", Status: record.StatusApplied, ApplicationDate: mustDate("2026-05-01")},
		{CompanyName: "Bad", Position: "p", Status: "nope", ApplicationDate: mustDate("2026-05-01")},
	})
	assert.ErrorIs(t, err, record.ErrInvalid)
	assert.Zero(t, fx.slots.writeCount(SlotApplications))
}

func TestFacade_SaveApplicationsRejectsDuplicateIDs(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	kept := fx.record(t, record.Application{CompanyName: "Kept", Position: "p"})
	writes := fx.slots.writeCount(SlotApplications)

	err := fx.facade.SaveApplications(ctx, []record.Application{
		{ID: "dup", CompanyName: "A", Position: "p", ApplicationDate: mustDate("2026-05-01")},
		{ID: "dup", CompanyName: "B", Position: "p", ApplicationDate: mustDate("2026-05-02")},
	})
	require.ErrorIs(t, err, record.ErrInvalid)
	var verr *record.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("id"))
	assert.Equal(t, writes, fx.slots.writeCount(SlotApplications))

	got, err := fx.facade.LoadApplications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, kept.ID, got[0].ID)
}

// --- Failures ---

func TestFacade_FailedWriteIsRetryableAndNotifies(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fx := newFacadeFixture(t)
	fx.facade.log = zap.New(core)
	ctx := context.Background()

	app := fx.record(t, record.Application{CompanyName: "Acme", Position: "SRE"})
	fx.slots.failSet = errDiskFull

	_, err := fx.facade.UpdateApplication(ctx, app.ID, record.StatusPatch(record.StatusInterview))
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, fx.kinds(), notify.SyncError)

	entries := logs.FilterMessage("storage operation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "local", entries[0].ContextMap()["mode"])
	assert.Equal(t, "updateApplication", entries[0].ContextMap()["op"])

	fx.slots.failSet = nil
	got, err := fx.facade.LoadApplications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, record.StatusApplied, got[0].Status, "prior state intact")
}

// --- Sync tasks ---

func TestFacade_SyncNeverRewritesRecords(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	fx.record(t, record.Application{CompanyName: "Old", Position: "p", ApplicationDate: mustDate("2026-01-01")})
	fx.record(t, record.Application{CompanyName: "Recent", Position: "p", ApplicationDate: mustDate("2026-05-25")})
	before, err := fx.facade.LoadApplications(ctx)
	require.NoError(t, err)
	writes := fx.slots.writeCount(SlotApplications)

	assert.Nil(t, fx.facade.LastSync(ctx))
	state, err := fx.facade.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, state.Mode)
	assert.Equal(t, 2, state.Applications)
	assert.True(t, state.LastSynced.Equal(testNow))

	fx.clock.Advance(24 * time.Hour)
	_, err = fx.facade.Sync(ctx)
	require.NoError(t, err)

	after, err := fx.facade.LoadApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, writes, fx.slots.writeCount(SlotApplications))

	last := fx.facade.LastSync(ctx)
	require.NotNil(t, last)
	assert.True(t, last.LastSynced.Equal(testNow.Add(24*time.Hour)))
}

func TestFacade_SyncRemoteWithoutSession(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.facade.SetMode(ctx, ModeRemote))

	_, err := fx.facade.Sync(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, fx.slots.writeCount(SlotSync))
}

func TestFacade_MarkStale(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	old := fx.record(t, record.Application{CompanyName: "Old", Position: "p", ApplicationDate: mustDate("2026-04-01")})
	fx.record(t, record.Application{CompanyName: "Recent", Position: "p", ApplicationDate: mustDate("2026-05-25")})
	fx.record(t, record.Application{CompanyName: "OldInterview", Position: "p", Status: record.StatusInterview, ApplicationDate: mustDate("2026-03-01")})

	n, err := fx.facade.MarkStale(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stale, err := fx.facade.GetApplications(ctx, query.Criteria{Status: "stale"})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)

	n, err = fx.facade.MarkStale(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFacade_MigrateLocalToRemote(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		fx.record(t, record.Application{CompanyName: name, Position: "p"})
	}

	_, err := fx.facade.MigrateLocalToRemote(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	fx.signIn(t)
	n, err := fx.facade.MigrateLocalToRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	remoteApps, err := fx.remote.Query(ctx, testUserID, query.Criteria{})
	require.NoError(t, err)
	assert.Len(t, remoteApps, 5)

	localApps, err := fx.facade.LoadApplications(ctx)
	require.NoError(t, err)
	assert.Len(t, localApps, 5, "local data is left in place")
}

func TestFacade_MigrateReportsPartialProgress(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	fx.facade.concurrency = 1

	for _, name := range []string{"A", "B", "C"} {
		fx.record(t, record.Application{CompanyName: name, Position: "p"})
	}
	fx.signIn(t)
	fx.remote.failInsert = errors.New("connection reset")
	fx.remote.failAfter = 2

	n, err := fx.facade.MigrateLocalToRemote(ctx)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 2, n)
}

// --- Export / import ---

func TestFacade_ExportImport(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.facade.SaveProfile(ctx, record.Profile{FirstName: "Ada", Email: "ada@example.com"}))
	require.NoError(t, fx.facade.SaveSettings(ctx, record.Settings{DarkMode: true}))

	data, err := fx.facade.ExportDocument(ctx)
	require.NoError(t, err)

	other := newFacadeFixture(t)
	require.NoError(t, other.facade.ImportDocument(ctx, data))

	p, err := other.facade.LoadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "ada@example.com", p.Email)

	s, err := other.facade.LoadSettings(ctx)
	require.NoError(t, err)
	assert.True(t, s.DarkMode)
}

func TestFacade_ImportRejectsIncompleteDocument(t *testing.T) {
	fx := newFacadeFixture(t)

	err := fx.facade.ImportDocument(context.Background(), []byte(`{"profile": {"firstName": "Ada"}}`))
	var verr *transfer.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, fx.slots.writeCount(SlotProfile))
	assert.Zero(t, fx.slots.writeCount(SlotSettings))
}

func TestFacade_ImportFailureKeepsPriorProfile(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.facade.SaveProfile(ctx, record.Profile{FirstName: "Grace"}))

	doc, err := transfer.Export(transfer.Document{Profile: record.Profile{FirstName: "Ada"}, Settings: record.Settings{AutoSync: true}})
	require.NoError(t, err)

	fx.slots.failSet, fx.slots.failKey = errDiskFull, SlotSettings
	err = fx.facade.ImportDocument(ctx, doc)
	require.ErrorIs(t, err, errDiskFull)
	assert.True(t, IsRetryable(err))

	p, err := fx.facade.LoadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Grace", p.FirstName)
	s, err := fx.facade.LoadSettings(ctx)
	require.NoError(t, err)
	assert.False(t, s.AutoSync)
}

func TestFacade_ImportFailureLeavesNoProfile(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	doc, err := transfer.Export(transfer.Document{Profile: record.Profile{FirstName: "Ada"}})
	require.NoError(t, err)

	fx.slots.failSet, fx.slots.failKey = errDiskFull, SlotSettings
	require.Error(t, fx.facade.ImportDocument(ctx, doc))

	p, err := fx.facade.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFacade_ImportIsAtomicOnSQLite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	f, err := NewFacade(ctx, Options{Slots: store})
	require.NoError(t, err)

	doc, err := transfer.Export(transfer.Document{Profile: record.Profile{FirstName: "Ada"}, Settings: record.Settings{DarkMode: true}})
	require.NoError(t, err)
	require.NoError(t, f.ImportDocument(ctx, doc))

	p, err := f.LoadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Ada", p.FirstName)
	s, err := f.LoadSettings(ctx)
	require.NoError(t, err)
	assert.True(t, s.DarkMode)
}

func TestFacade_RecordCapture(t *testing.T) {
	fx := newFacadeFixture(t)

	app, err := fx.facade.RecordCapture(context.Background(), record.Capture{
		Company:  "Initech",
		Position: "Analyst",
		URL:      "https://jobs.example/123",
	})
	require.NoError(t, err)
	assert.Equal(t, record.StatusApplied, app.Status)
	assert.Equal(t, "https://jobs.example/123", app.JobURL)
	assert.Equal(t, []notify.Kind{notify.ApplicationRecorded}, fx.kinds())
}
