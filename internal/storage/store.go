package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/jobtrail/internal/auth"
)

// SQLiteStore is the local slot store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	ownsDB bool

	// Prepared statements
	getSlot    *sql.Stmt
	setSlot    *sql.Stmt
	deleteSlot *sql.Stmt
}

var _ BatchSlotStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

// OpenSQLite opens (creating if needed) the database file at path, runs
// migrations and returns a store that owns the connection.
func OpenSQLite(path, journalMode string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := NewMigrationRunner(db, journalMode).Run(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.path = path
	s.ownsDB = true
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getSlot, err = s.db.Prepare(`SELECT value FROM slots WHERE key = ?`)
	if err != nil {
		return err
	}

	s.setSlot, err = s.db.Prepare(`
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}

	s.deleteSlot, err = s.db.Prepare(`DELETE FROM slots WHERE key = ?`)
	if err != nil {
		return err
	}

	return nil
}

// Path returns the database file path, or "" for stores built with NewSQLiteStore.
func (s *SQLiteStore) Path() string { return s.path }

// Get returns the raw value of key. The bool is false when the slot is empty.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.getSlot.QueryRowContext(ctx, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, unavailable("get "+key, err)
	}
	return value, true, nil
}

// Set replaces the value of key in a single statement.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.setSlot.ExecContext(ctx, key, value, ts); err != nil {
		return unavailable("set "+key, err)
	}
	return nil
}

// SetMany replaces every slot in writes inside one transaction.
func (s *SQLiteStore) SetMany(ctx context.Context, writes []SlotWrite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin slot batch", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt := tx.StmtContext(ctx, s.setSlot)
	ts := time.Now().UTC().Format(time.RFC3339)
	for _, w := range writes {
		if _, err := stmt.ExecContext(ctx, w.Key, w.Value, ts); err != nil {
			return unavailable("set "+w.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit slot batch", err)
	}
	return nil
}

// Delete empties key. Deleting an empty slot is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.deleteSlot.ExecContext(ctx, key); err != nil {
		return unavailable("delete "+key, err)
	}
	return nil
}

// GetJSON decodes the slot into v. It reports false, leaving v untouched,
// when the slot is empty.
func (s *SQLiteStore) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	return getJSON(ctx, s, key, v)
}

// SetJSON encodes v into the slot.
func (s *SQLiteStore) SetJSON(ctx context.Context, key string, v any) error {
	return setJSON(ctx, s, key, v)
}

func getJSON(ctx context.Context, slots SlotStore, key string, v any) (bool, error) {
	data, ok, err := slots.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, unavailable("decode "+key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, slots SlotStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return slots.Set(ctx, key, data)
}

// setSlots writes every slot or none. Stores without transactions get
// the earlier writes undone when a later one fails.
func setSlots(ctx context.Context, slots SlotStore, writes []SlotWrite) error {
	if batch, ok := slots.(BatchSlotStore); ok {
		return batch.SetMany(ctx, writes)
	}

	type prior struct {
		value []byte
		ok    bool
	}
	saved := make([]prior, len(writes))
	for i, w := range writes {
		v, ok, err := slots.Get(ctx, w.Key)
		if err != nil {
			return err
		}
		saved[i] = prior{value: v, ok: ok}
	}

	for i, w := range writes {
		if err := slots.Set(ctx, w.Key, w.Value); err != nil {
			for j := i - 1; j >= 0; j-- {
				if saved[j].ok {
					_ = slots.Set(ctx, writes[j].Key, saved[j].value)
				} else {
					_ = slots.Delete(ctx, writes[j].Key)
				}
			}
			return err
		}
	}
	return nil
}

// ListSlots describes every non-empty slot, ordered by key.
func (s *SQLiteStore) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, length(value), updated_at FROM slots ORDER BY key",
	)
	if err != nil {
		return nil, unavailable("list slots", err)
	}
	defer rows.Close()

	infos := []SlotInfo{}
	for rows.Next() {
		var info SlotInfo
		var tsStr string
		if err := rows.Scan(&info.Key, &info.Size, &tsStr); err != nil {
			return nil, unavailable("scan slot", err)
		}
		info.UpdatedAt, _ = parseTimestamp(tsStr)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list slots", err)
	}
	return infos, nil
}

// SchemaVersion reports the highest applied slot-schema migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	return (&MigrationRunner{db: s.db}).Version(ctx)
}

// PurgeAll empties every slot.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM slots"); err != nil {
		return unavailable("purge", err)
	}
	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// SessionTokens exposes the session slot as an auth token store.
func (s *SQLiteStore) SessionTokens() auth.TokenStore {
	return sessionSlot{slots: s}
}

type sessionSlot struct {
	slots SlotStore
}

func (t sessionSlot) LoadToken(ctx context.Context) (string, error) {
	var token string
	if _, err := getJSON(ctx, t.slots, SlotSession, &token); err != nil {
		return "", err
	}
	return token, nil
}

func (t sessionSlot) SaveToken(ctx context.Context, token string) error {
	return setJSON(ctx, t.slots, SlotSession, token)
}

func (t sessionSlot) ClearToken(ctx context.Context) error {
	return t.slots.Delete(ctx, SlotSession)
}

// Close releases all prepared statements. The underlying *sql.DB is closed
// only when the store opened it itself.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.getSlot, s.setSlot, s.deleteSlot}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
