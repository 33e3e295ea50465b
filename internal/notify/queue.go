// ABOUTME: FIFO of self-expiring notifications with per-item timers
// ABOUTME: Publishes push/remove events to subscribers without blocking on slow readers

package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultDuration is how long a notification stays visible.
	DefaultDuration = 3 * time.Second

	subscriberBufferSize = 64
)

// Kind classifies a notification for rendering.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is one transient message.
type Notification struct {
	ID        string
	Message   string
	Kind      Kind
	CreatedAt time.Time
}

// EventType says whether a notification appeared or went away.
type EventType string

const (
	EventPushed  EventType = "pushed"
	EventRemoved EventType = "removed"
)

// Event is delivered to subscribers.
type Event struct {
	Type         EventType
	Notification Notification
}

// Queue keeps notifications in arrival order. Removing one never touches
// the timers of the others.
type Queue struct {
	mu          sync.Mutex
	items       []Notification
	timers      map[string]*time.Timer
	subscribers map[string]chan Event
	duration    time.Duration
	closed      bool
	done        chan struct{}
	watchers    sync.WaitGroup
	logger      *slog.Logger
}

// New creates a queue. A non-positive duration means DefaultDuration.
// Pass nil logger for default.
func New(duration time.Duration, logger *slog.Logger) *Queue {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		timers:      make(map[string]*time.Timer),
		subscribers: make(map[string]chan Event),
		duration:    duration,
		done:        make(chan struct{}),
		logger:      logger.With("component", "notify"),
	}
}

// Push appends a notification and schedules its removal. It returns the
// notification id, or "" if the queue is closed.
func (q *Queue) Push(message string, kind Kind) string {
	n := Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ""
	}
	q.items = append(q.items, n)
	q.timers[n.ID] = time.AfterFunc(q.duration, func() {
		q.remove(n.ID, "expired")
	})
	q.publishLocked(Event{Type: EventPushed, Notification: n})
	q.mu.Unlock()

	q.logger.Debug("notification pushed", "id", n.ID, "kind", kind)
	return n.ID
}

// Info pushes an info notification.
func (q *Queue) Info(message string) string { return q.Push(message, KindInfo) }

// Success pushes a success notification.
func (q *Queue) Success(message string) string { return q.Push(message, KindSuccess) }

// Error pushes an error notification.
func (q *Queue) Error(message string) string { return q.Push(message, KindError) }

// Dismiss removes a notification before its timer fires. It reports
// whether the id was present.
func (q *Queue) Dismiss(id string) bool {
	return q.remove(id, "dismissed")
}

// List returns the visible notifications in arrival order.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

func (q *Queue) remove(id, reason string) bool {
	q.mu.Lock()
	idx := slices.IndexFunc(q.items, func(n Notification) bool { return n.ID == id })
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	n := q.items[idx]
	q.items = slices.Delete(q.items, idx, idx+1)
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	q.publishLocked(Event{Type: EventRemoved, Notification: n})
	q.mu.Unlock()

	q.logger.Debug("notification removed", "id", id, "reason", reason)
	return true
}

// Subscribe registers for push/remove events. The subscription ends when
// ctx is cancelled or the queue is closed.
func (q *Queue) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		close(ch)
		return ch, subID
	}
	q.subscribers[subID] = ch
	q.watchers.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.watchers.Done()
		select {
		case <-ctx.Done():
			q.Unsubscribe(subID)
		case <-q.done:
		}
	}()

	return ch, subID
}

// Unsubscribe removes a subscription and closes its channel.
func (q *Queue) Unsubscribe(subID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch, ok := q.subscribers[subID]
	if !ok {
		return
	}
	delete(q.subscribers, subID)
	close(ch)
}

// publishLocked never blocks; a full subscriber misses the event.
// Must be called with mu held.
func (q *Queue) publishLocked(ev Event) {
	for _, ch := range q.subscribers {
		select {
		case ch <- ev:
		default:
			q.logger.Debug("dropped event for slow subscriber", "id", ev.Notification.ID)
		}
	}
}

// Close stops every pending timer, clears the queue and closes all
// subscriber channels. It returns once every subscription watcher has
// exited.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	for id, ch := range q.subscribers {
		close(ch)
		delete(q.subscribers, id)
	}
	q.mu.Unlock()

	q.watchers.Wait()
}
