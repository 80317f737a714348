package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// memSlots is an in-memory SlotStore that counts writes per key and can be
// told to fail.
type memSlots struct {
	mu      sync.Mutex
	data    map[string][]byte
	writes  map[string]int
	failGet error
	failSet error

	// failKey limits failSet to one slot when set.
	failKey string
}

func newMemSlots() *memSlots {
	return &memSlots{data: map[string][]byte{}, writes: map[string]int{}}
}

func (m *memSlots) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, false, unavailable("get "+key, m.failGet)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *memSlots) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil && (m.failKey == "" || m.failKey == key) {
		return unavailable("set "+key, m.failSet)
	}
	m.data[key] = append([]byte(nil), value...)
	m.writes[key]++
	return nil
}

func (m *memSlots) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.writes[key]++
	return nil
}

func (m *memSlots) writeCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[key]
}

var errDiskFull = errors.New("disk full")

// fixedClock returns a clock frozen at t that can be advanced.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
