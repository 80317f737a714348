package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/jobtrail/internal/auth"
	"github.com/runnerr0/jobtrail/internal/record"
	"github.com/runnerr0/jobtrail/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testEnv is a facade over a temporary SQLite database. The "remote" store
// is a second SQLite database so migration and remote mode can be exercised
// without PostgreSQL.
type testEnv struct {
	facade   *storage.Facade
	store    *storage.SQLiteStore
	remote   *storage.LocalApplications
	provider *auth.TokenProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.OpenSQLite(filepath.Join(dir, "jobtrail.db"), "wal")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	remoteSlots, err := storage.OpenSQLite(filepath.Join(dir, "remote.db"), "wal")
	require.NoError(t, err)
	t.Cleanup(func() { remoteSlots.Close() })

	provider := auth.NewTokenProvider(store.SessionTokens(), auth.Config{Secret: "test-secret", Issuer: "jobtrail"})
	remote := storage.NewLocalApplications(remoteSlots)

	f, err := storage.NewFacade(context.Background(), storage.Options{
		Slots:              store,
		Remote:             remote,
		Auth:               provider,
		MigrateConcurrency: 1, // the stand-in remote rewrites one slot per insert
	})
	require.NoError(t, err)

	return &testEnv{facade: f, store: store, remote: remote, provider: provider}
}

// signIn issues and stores a session for userID.
func (e *testEnv) signIn(t *testing.T, userID string) {
	t.Helper()
	token, err := e.provider.Issue(userID, userID+"@example.com", time.Hour)
	require.NoError(t, err)
	_, err = e.facade.SignIn(context.Background(), token)
	require.NoError(t, err)
}

// seed records apps through the facade and returns the stored copies.
func (e *testEnv) seed(t *testing.T, apps ...record.Application) []record.Application {
	t.Helper()
	out := make([]record.Application, 0, len(apps))
	for _, app := range apps {
		stored, err := e.facade.RecordApplication(context.Background(), app)
		require.NoError(t, err)
		out = append(out, stored)
	}
	return out
}

func strp(s string) *string { return &s }

func mustDate(t *testing.T, s string) record.Date {
	t.Helper()
	d, err := record.ParseDate(s)
	require.NoError(t, err)
	return d
}
