package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/runnerr0/jobtrail/internal/query"
	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/storage"
)

// seedSyncTest stores oldCount applications applied 60 days ago and
// recentCount applied yesterday, all still in status applied.
func seedSyncTest(t *testing.T, oldCount, recentCount int) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	now := time.Now()

	for i := 0; i < oldCount; i++ {
		env.seed(t, record.Application{
			CompanyName:     "Old Co",
			Position:        "SRE",
			ApplicationDate: record.DateOf(now.AddDate(0, 0, -60)),
		})
	}
	for i := 0; i < recentCount; i++ {
		env.seed(t, record.Application{
			CompanyName:     "Recent Co",
			Position:        "SRE",
			ApplicationDate: record.DateOf(now.AddDate(0, 0, -1)),
		})
	}
	return env
}

func countStatus(t *testing.T, env *testEnv, s record.Status) int {
	t.Helper()
	apps, err := env.facade.GetApplications(context.Background(), query.Criteria{Status: string(s)})
	require.NoError(t, err)
	return len(apps)
}

func TestStale_DefaultThreshold(t *testing.T) {
	env := seedSyncTest(t, 3, 2)

	cmd := &StaleCommand{globals: &GlobalFlags{}}
	olderThan, err := cmd.threshold(30)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, olderThan)

	output := captureOutput(t, func() { require.NoError(t, cmd.executeWith(context.Background(), env.facade, olderThan)) })
	assert.Contains(t, output, "Marked 3 application(s) stale (applied more than 30 days ago).")

	assert.Equal(t, 3, countStatus(t, env, record.StatusStale))
	assert.Equal(t, 2, countStatus(t, env, record.StatusApplied))
}

func TestStale_CustomOlderThan(t *testing.T) {
	env := seedSyncTest(t, 1, 2)

	cmd := &StaleCommand{OlderThan: "0h", globals: &GlobalFlags{JSON: true}}
	olderThan, err := cmd.threshold(30)
	require.NoError(t, err)

	output := captureOutput(t, func() { require.NoError(t, cmd.executeWith(context.Background(), env.facade, olderThan)) })

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, float64(3), got["marked_stale"])
}

func TestStale_LeavesOtherStatusesAlone(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, record.Application{
		CompanyName:     "Acme",
		Position:        "SRE",
		Status:          record.StatusInterview,
		ApplicationDate: record.DateOf(time.Now().AddDate(0, 0, -90)),
	})

	cmd := &StaleCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() { require.NoError(t, cmd.executeWith(context.Background(), env.facade, 30*24*time.Hour)) })
	assert.Contains(t, output, "Marked 0 application(s) stale")
	assert.Equal(t, 1, countStatus(t, env, record.StatusInterview))
}

func TestStale_InvalidOlderThan(t *testing.T) {
	cmd := &StaleCommand{OlderThan: "invalid", globals: &GlobalFlags{}}
	_, err := cmd.threshold(30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --older-than value")
}

func TestStale_RemoteModeWithoutSession(t *testing.T) {
	env := seedSyncTest(t, 1, 0)
	ctx := context.Background()
	require.NoError(t, env.facade.SetMode(ctx, storage.ModeRemote))

	cmd := &StaleCommand{globals: &GlobalFlags{}}
	err := cmd.executeWith(ctx, env.facade, time.Hour)
	assert.ErrorIs(t, err, storage.ErrUnauthenticated)
	assert.NotContains(t, err.Error(), "please try again")
}

func TestSync_ReportsAndLeavesRecordsAlone(t *testing.T) {
	env := seedSyncTest(t, 2, 1)
	ctx := context.Background()

	cmd := &SyncCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() { require.NoError(t, cmd.executeWith(ctx, env.facade)) })
	assert.Contains(t, output, "Synced 3 application(s) from the local store")

	assert.Equal(t, 3, countStatus(t, env, record.StatusApplied))
	assert.Zero(t, countStatus(t, env, record.StatusStale))
	require.NotNil(t, env.facade.LastSync(ctx))
}

func TestSync_JSONOutput(t *testing.T) {
	env := seedSyncTest(t, 1, 0)

	cmd := &SyncCommand{globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() { require.NoError(t, cmd.executeWith(context.Background(), env.facade)) })

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "local", got["mode"])
	assert.Equal(t, float64(1), got["applications"])
	assert.NotEmpty(t, got["last_synced"])
}

func TestSync_RemoteModeWithoutSession(t *testing.T) {
	env := seedSyncTest(t, 1, 0)
	ctx := context.Background()
	require.NoError(t, env.facade.SetMode(ctx, storage.ModeRemote))

	cmd := &SyncCommand{globals: &GlobalFlags{}}
	err := cmd.executeWith(ctx, env.facade)
	assert.ErrorIs(t, err, storage.ErrUnauthenticated)
}

func TestSync_WatchNeverMarksStale(t *testing.T) {
	env := seedSyncTest(t, 2, 0)
	core, logs := observer.New(zap.InfoLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	cmd := &SyncCommand{globals: &GlobalFlags{}}
	require.NoError(t, cmd.watch(ctx, env.facade, zap.New(core), time.Hour))

	passes := logs.FilterMessage("sync pass complete").All()
	require.Len(t, passes, 1)
	assert.Equal(t, int64(2), passes[0].ContextMap()["applications"])
	assert.Equal(t, 1, logs.FilterMessage("sync loop stopped").Len())

	assert.Equal(t, 2, countStatus(t, env, record.StatusApplied))
	assert.Zero(t, countStatus(t, env, record.StatusStale))
}

func TestSync_WatchRejectsZeroInterval(t *testing.T) {
	env := newTestEnv(t)
	cmd := &SyncCommand{globals: &GlobalFlags{}}
	err := cmd.watch(context.Background(), env.facade, zap.NewNop(), 0)
	assert.Error(t, err)
}

func TestRetryHint(t *testing.T) {
	assert.NoError(t, retryHint(nil))

	plain := errors.New("bad input")
	assert.Same(t, plain, retryHint(plain))
	assert.Equal(t, storage.ErrUnauthenticated, retryHint(storage.ErrUnauthenticated))

	transient := &storage.RemoteError{Op: "insert", Cause: errors.New("connection reset")}
	err := retryHint(fmt.Errorf("recording application: %w", transient))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please try again")
	var re *storage.RemoteError
	assert.ErrorAs(t, err, &re)
}

func TestAddCommand_UnreachableRemoteAsksToRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signIn(t, "user-1")

	f, err := storage.NewFacade(ctx, storage.Options{Slots: env.store, Auth: env.provider})
	require.NoError(t, err)
	require.NoError(t, f.SetMode(ctx, storage.ModeRemote))

	add := &AddCommand{RecordFields: RecordFields{Company: strp("Acme"), Position: strp("SRE")}, globals: &GlobalFlags{}}
	err = add.executeWith(ctx, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please try again")

	del := &DeleteCommand{ID: "any", globals: &GlobalFlags{}}
	err = del.executeWith(ctx, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please try again")
}

func TestMigrateCommand_CopiesAndSwitches(t *testing.T) {
	env := seedSyncTest(t, 2, 1)
	ctx := context.Background()
	env.signIn(t, "user-1")

	cmd := &MigrateCommand{Switch: true, globals: &GlobalFlags{}}
	output := captureOutput(t, func() { require.NoError(t, cmd.executeWith(ctx, env.facade)) })
	assert.Contains(t, output, "Migrated 3 application(s)")
	assert.Contains(t, output, "Storage mode is now remote.")
	assert.Equal(t, storage.ModeRemote, env.facade.Mode())

	apps, err := env.facade.LoadApplications(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 3)
	for _, app := range apps {
		assert.Equal(t, "user-1", app.OwnerID)
	}

	require.NoError(t, env.facade.SetMode(ctx, storage.ModeLocal))
	local, err := env.facade.LoadApplications(ctx)
	require.NoError(t, err)
	assert.Len(t, local, 3)
}

func TestMigrateCommand_RequiresSession(t *testing.T) {
	env := seedSyncTest(t, 1, 0)

	cmd := &MigrateCommand{globals: &GlobalFlags{}}
	err := cmd.executeWith(context.Background(), env.facade)
	assert.ErrorIs(t, err, storage.ErrUnauthenticated)
	assert.Equal(t, storage.ModeLocal, env.facade.Mode())
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30d", 30 * 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		d, err := parseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, d, tt.in)
	}

	for _, bad := range []string{"", "d", "abc", "10y", "-3d"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "30 days", formatDurationHuman(30*24*time.Hour))
	assert.Equal(t, "12 hours", formatDurationHuman(12*time.Hour))
	assert.Equal(t, "1 hour", formatDurationHuman(time.Hour))
	assert.Equal(t, "30m0s", formatDurationHuman(30*time.Minute))
}
