package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/runnerr0/jobtrail/internal/query"
	"github.com/runnerr0/jobtrail/internal/record"
)

// LocalApplications keeps application records in the applications slot.
// The slot holds the whole sequence; every write replaces it.
type LocalApplications struct {
	slots SlotStore
	now   func() time.Time
	newID func() string
}

var _ ApplicationStore = (*LocalApplications)(nil)

// NewLocalApplications creates a LocalApplications over slots.
func NewLocalApplications(slots SlotStore) *LocalApplications {
	return &LocalApplications{
		slots: slots,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock overrides the time source.
func (l *LocalApplications) WithClock(now func() time.Time) *LocalApplications {
	l.now = now
	return l
}

// LoadAll returns every record in the slot in stored order. An empty slot
// yields an empty, non-nil slice.
func (l *LocalApplications) LoadAll(ctx context.Context) ([]record.Application, error) {
	var apps []record.Application
	if _, err := getJSON(ctx, l.slots, SlotApplications, &apps); err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []record.Application{}
	}
	return apps, nil
}

// ReplaceAll overwrites the slot with apps.
func (l *LocalApplications) ReplaceAll(ctx context.Context, apps []record.Application) error {
	if apps == nil {
		apps = []record.Application{}
	}
	return setJSON(ctx, l.slots, SlotApplications, apps)
}

// Insert validates app, assigns a fresh id and timestamps, and appends it.
func (l *LocalApplications) Insert(ctx context.Context, owner string, app record.Application) (record.Application, error) {
	now := l.now()
	app.ID, app.OwnerID = "", ""
	app.CreatedAt, app.UpdatedAt = time.Time{}, time.Time{}
	app, err := record.New(app, now)
	if err != nil {
		return record.Application{}, err
	}
	app.ID = l.newID()
	app.OwnerID = owner
	app.CreatedAt = record.NormalizeTime(now)
	app.UpdatedAt = app.CreatedAt

	all, err := l.LoadAll(ctx)
	if err != nil {
		return record.Application{}, err
	}
	if err := l.ReplaceAll(ctx, append(all, app)); err != nil {
		return record.Application{}, err
	}
	return app.Clone(), nil
}

// Query returns the owner's records matching c.
func (l *LocalApplications) Query(ctx context.Context, owner string, c query.Criteria) ([]record.Application, error) {
	all, err := l.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]record.Application, 0, len(all))
	for _, app := range all {
		if app.OwnerID == owner {
			owned = append(owned, app)
		}
	}
	return query.Filter(owned, c, l.now()), nil
}

// Update merges p into the owner's record id and bumps UpdatedAt.
func (l *LocalApplications) Update(ctx context.Context, owner, id string, p record.Patch) (record.Application, error) {
	if err := p.Validate(); err != nil {
		return record.Application{}, err
	}

	all, err := l.LoadAll(ctx)
	if err != nil {
		return record.Application{}, err
	}
	i := indexOf(all, owner, id)
	if i < 0 {
		return record.Application{}, ErrNotFound
	}

	merged := p.Apply(all[i])
	merged.UpdatedAt = record.NormalizeTime(l.now())
	if merged.UpdatedAt.Before(merged.CreatedAt) {
		merged.UpdatedAt = merged.CreatedAt
	}
	if err := record.Validate(merged); err != nil {
		return record.Application{}, err
	}

	all[i] = merged
	if err := l.ReplaceAll(ctx, all); err != nil {
		return record.Application{}, err
	}
	return merged.Clone(), nil
}

// Remove deletes the owner's record id, or returns ErrNotFound.
func (l *LocalApplications) Remove(ctx context.Context, owner, id string) error {
	all, err := l.LoadAll(ctx)
	if err != nil {
		return err
	}
	i := indexOf(all, owner, id)
	if i < 0 {
		return ErrNotFound
	}
	return l.ReplaceAll(ctx, append(all[:i], all[i+1:]...))
}

func indexOf(apps []record.Application, owner, id string) int {
	for i, app := range apps {
		if app.ID == id && app.OwnerID == owner {
			return i
		}
	}
	return -1
}
