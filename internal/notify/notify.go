// Package notify delivers fire-and-forget result events to whatever
// presents them to the user. Delivery never blocks the caller.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Kind identifies an event.
type Kind string

const (
	ApplicationRecorded Kind = "applicationRecorded"
	ApplicationUpdated  Kind = "applicationUpdated"
	ApplicationDeleted  Kind = "applicationDeleted"
	SyncError           Kind = "syncError"
	ModeChanged         Kind = "modeChanged"
)

// Event is a single notification.
type Event struct {
	Kind          Kind      `json:"kind"`
	ApplicationID string    `json:"applicationId,omitempty"`
	Message       string    `json:"message,omitempty"`
	At            time.Time `json:"at"`
}

// Notifier receives events.
type Notifier interface {
	Notify(Event)
}

// Func adapts a function to Notifier.
type Func func(Event)

// Notify calls f(ev).
func (f Func) Notify(ev Event) { f(ev) }

// Discard drops every event.
var Discard Notifier = Func(func(Event) {})

// LogNotifier writes events to a zap logger.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs ev; sync errors at warn level, everything else at info.
func (n *LogNotifier) Notify(ev Event) {
	fields := []zap.Field{
		zap.String("event", string(ev.Kind)),
		zap.Time("at", ev.At),
	}
	if ev.ApplicationID != "" {
		fields = append(fields, zap.String("application_id", ev.ApplicationID))
	}
	if ev.Message != "" {
		fields = append(fields, zap.String("message", ev.Message))
	}
	if ev.Kind == SyncError {
		n.log.Warn("notification", fields...)
		return
	}
	n.log.Info("notification", fields...)
}

// Async hands events to next on a background goroutine through a bounded
// buffer. Events arriving while the buffer is full are dropped.
type Async struct {
	next    Notifier
	events  chan Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

// NewAsync starts the delivery goroutine. Call Close to flush and stop it.
func NewAsync(next Notifier, buffer int) *Async {
	if buffer <= 0 {
		buffer = 64
	}
	a := &Async{
		next:   next,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.events {
		a.next.Notify(ev)
	}
}

// Notify queues ev without blocking.
func (a *Async) Notify(ev Event) {
	select {
	case a.events <- ev:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting events, delivers what is queued and waits.
// Notify must not be called after Close.
func (a *Async) Close() {
	a.once.Do(func() { close(a.events) })
	<-a.done
}
