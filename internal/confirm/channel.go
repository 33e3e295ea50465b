// ABOUTME: Single-slot yes/no confirmation channel between controllers and the front end
// ABOUTME: Request blocks until the user confirms, cancels, or the request is abandoned

// Package confirm serializes destructive-action confirmations. At most one
// request is pending at a time; a second Request fails with ErrPending
// instead of overwriting the first.
package confirm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrPending is returned when a request arrives while another is unresolved.
	ErrPending = errors.New("confirmation already pending")
	// ErrNotPending is returned when resolving a request that is not the pending one.
	ErrNotPending = errors.New("no such pending confirmation")
)

// Severity hints how the front end should style the prompt.
type Severity string

const (
	SeverityDestructive Severity = "destructive"
	SeverityWarning     Severity = "warning"
	SeverityInfo        Severity = "info"
)

// Params describes what the user is being asked.
type Params struct {
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
	Severity     Severity
}

func (p Params) withDefaults() Params {
	if p.ConfirmLabel == "" {
		p.ConfirmLabel = "Confirm"
	}
	if p.CancelLabel == "" {
		p.CancelLabel = "Cancel"
	}
	if p.Severity == "" {
		p.Severity = SeverityDestructive
	}
	return p
}

// Request is a pending confirmation as seen by the front end.
type Request struct {
	ID        string
	Params    Params
	CreatedAt time.Time
}

type slot struct {
	req    Request
	result chan bool
}

// Channel holds the single pending confirmation slot.
type Channel struct {
	mu       sync.Mutex
	pending  *slot
	requests chan Request
	logger   *slog.Logger
}

// New creates a channel. Pass nil logger for default.
func New(logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		requests: make(chan Request, 1),
		logger:   logger.With("component", "confirm"),
	}
}

// Requests delivers each new request to the front end. Only the latest
// unread request is kept.
func (c *Channel) Requests() <-chan Request {
	return c.requests
}

// Request asks the user and blocks until an answer. Confirm yields true.
// Cancel, Abandon and ctx cancellation all yield false.
func (c *Channel) Request(ctx context.Context, p Params) (bool, error) {
	s := &slot{
		req: Request{
			ID:        uuid.New().String(),
			Params:    p.withDefaults(),
			CreatedAt: time.Now(),
		},
		result: make(chan bool, 1),
	}

	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return false, ErrPending
	}
	c.pending = s
	// Replace any stale unread request
	select {
	case <-c.requests:
	default:
	}
	c.requests <- s.req
	c.mu.Unlock()

	c.logger.Debug("confirmation requested", "id", s.req.ID, "title", s.req.Params.Title)

	select {
	case ok := <-s.result:
		return ok, nil
	case <-ctx.Done():
		_ = c.finish(s.req.ID, false, "context done")
		// The slot may have been resolved concurrently; the buffered value wins.
		select {
		case ok := <-s.result:
			return ok, nil
		default:
			return false, nil
		}
	}
}

// Pending returns the unresolved request, if any.
func (c *Channel) Pending() (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return Request{}, false
	}
	return c.pending.req, true
}

// Resolve answers the pending request with id.
func (c *Channel) Resolve(id string, confirmed bool) error {
	reason := "cancelled"
	if confirmed {
		reason = "confirmed"
	}
	return c.finish(id, confirmed, reason)
}

// Abandon drops the pending request with id, which counts as cancel.
func (c *Channel) Abandon(id string) error {
	return c.finish(id, false, "abandoned")
}

func (c *Channel) finish(id string, confirmed bool, reason string) error {
	c.mu.Lock()
	s := c.pending
	if s == nil || s.req.ID != id {
		c.mu.Unlock()
		return ErrNotPending
	}
	c.pending = nil
	c.mu.Unlock()

	s.result <- confirmed
	c.logger.Debug("confirmation resolved", "id", id, "reason", reason)
	return nil
}
