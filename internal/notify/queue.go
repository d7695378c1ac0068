// Package notify holds the client's transient user-facing notifications.
//
// Each notification is visible from creation until either its display
// timer fires or it is dismissed, whichever comes first. Dismissing an
// already removed notification is a no-op.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/samvad-hq/library-client/internal/domain"
)

// DefaultDisplayDuration is how long a notification stays visible.
const DefaultDisplayDuration = 3000 * time.Millisecond

// Notification is a single visible message.
type Notification struct {
	ID        uint64          `json:"id"`
	Message   string          `json:"message"`
	Severity  domain.Severity `json:"severity"`
	CreatedAt time.Time       `json:"created_at"`
}

// Sink accepts user-facing messages.
type Sink interface {
	Notify(ctx context.Context, message string, severity domain.Severity)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, message string, severity domain.Severity)

func (f SinkFunc) Notify(ctx context.Context, message string, severity domain.Severity) {
	f(ctx, message, severity)
}

type timer interface {
	Stop() bool
}

// Queue is the ordered collection of visible notifications.
type Queue struct {
	mu      sync.Mutex
	nextID  uint64
	items   []Notification
	timers  map[uint64]timer
	display time.Duration

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) timer
}

// NewQueue creates a queue whose entries expire after display
// (DefaultDisplayDuration when display <= 0).
func NewQueue(display time.Duration) *Queue {
	if display <= 0 {
		display = DefaultDisplayDuration
	}
	return &Queue{
		timers:  make(map[uint64]timer),
		display: display,
		now:     time.Now,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

// Notify implements Sink.
func (q *Queue) Notify(_ context.Context, message string, severity domain.Severity) {
	q.Push(message, severity)
}

// Push appends a notification and schedules its removal. An empty severity
// is treated as success.
func (q *Queue) Push(message string, severity domain.Severity) Notification {
	if severity == "" {
		severity = domain.SeveritySuccess
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	n := Notification{
		ID:        q.nextID,
		Message:   message,
		Severity:  severity,
		CreatedAt: q.now(),
	}
	q.nextID++
	q.items = append(q.items, n)

	id := n.ID
	q.timers[id] = q.afterFunc(q.display, func() { q.Dismiss(id) })
	return n
}

// Success, Error and Warning are shorthands for Push.
func (q *Queue) Success(message string) Notification {
	return q.Push(message, domain.SeveritySuccess)
}

func (q *Queue) Error(message string) Notification {
	return q.Push(message, domain.SeverityError)
}

func (q *Queue) Warning(message string) Notification {
	return q.Push(message, domain.SeverityWarning)
}

// Dismiss removes the notification with id. It reports whether anything was
// removed.
func (q *Queue) Dismiss(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}

	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the visible notifications in creation order.
func (q *Queue) Items() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of visible notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops pending timers and drops every notification.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
}
