package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/jobtrail/internal/query"
	"github.com/runnerr0/jobtrail/internal/record"
)

// Mode selects where application records live.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// ParseMode converts s into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown storage mode %q (want local or remote)", s)
	}
	return m, nil
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLocal || m == ModeRemote
}

// Local slot names.
const (
	SlotProfile      = "profile"
	SlotResume       = "resume"
	SlotApplications = "applications"
	SlotStorageMode  = "storageMode"
	SlotSession      = "session"
	SlotSettings     = "settings"
	SlotSync         = "sync"
)

// Slots lists every local slot.
var Slots = []string{
	SlotProfile, SlotResume, SlotApplications, SlotStorageMode, SlotSession, SlotSettings, SlotSync,
}

// LocalOwner is the pseudo-owner of records kept on the device without an account.
const LocalOwner = "local"

// SlotStore is key-scoped durable storage. Set replaces a slot atomically.
type SlotStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SlotWrite is one slot value in a batch.
type SlotWrite struct {
	Key   string
	Value []byte
}

// BatchSlotStore is a SlotStore that can replace several slots in one
// transaction: either every write lands or none does.
type BatchSlotStore interface {
	SlotStore
	SetMany(ctx context.Context, writes []SlotWrite) error
}

// ApplicationStore is the capability both backends implement. Every
// operation is scoped to owner; ids of other owners are treated as absent.
type ApplicationStore interface {
	Insert(ctx context.Context, owner string, app record.Application) (record.Application, error)
	Query(ctx context.Context, owner string, c query.Criteria) ([]record.Application, error)
	Update(ctx context.Context, owner, id string, p record.Patch) (record.Application, error)
	Remove(ctx context.Context, owner, id string) error
}

// SlotInfo describes a stored slot.
type SlotInfo struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}
