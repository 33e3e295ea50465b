// ABOUTME: Generic paged collection controller shared by colleges, programs and students
// ABOUTME: Sequence-gated fetches, page clamping, staged search, sort toggling and selection

package paging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/apierr"
	"github.com/2389/registrar/internal/confirm"
	"github.com/2389/registrar/internal/inflight"
	"github.com/2389/registrar/internal/notify"
	"github.com/2389/registrar/internal/resource"
)

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 10

// maxClampRefetches bounds the refetches triggered by page clamping when
// the collection keeps shrinking underneath us.
const maxClampRefetches = 3

// ErrBusy is returned when a mutation on the same record is already running.
var ErrBusy = errors.New("an operation on this record is already in progress")

// ErrPageUnsettled is returned when the page count kept shrinking through
// every clamp refetch, so the shown items may not match the current page.
var ErrPageUnsettled = errors.New("page count kept changing while loading")

// Collection is the request layer a controller drives. *api.Resource
// implements it.
type Collection[T any] interface {
	List(ctx context.Context, q api.Query) (*api.Page[T], error)
	Create(ctx context.Context, payload T) (T, error)
	Update(ctx context.Context, key string, payload T) (T, error)
	Delete(ctx context.Context, key string) error
	BulkDelete(ctx context.Context, keys []string) error
}

// Confirmer asks the user a yes/no question. *confirm.Channel implements it.
type Confirmer interface {
	Request(ctx context.Context, p confirm.Params) (bool, error)
}

// Notifier shows transient messages. *notify.Queue implements it.
type Notifier interface {
	Push(message string, kind notify.Kind) string
}

// Logouter ends the session when the server rejects the token.
// *session.Manager implements it.
type Logouter interface {
	ForceLogout(ctx context.Context)
}

// Status is the fetch lifecycle of a controller.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Options wires a controller to its collaborators. Nil collaborators are
// allowed: without a Confirmer destructive actions are declined.
type Options struct {
	PageSize  int
	Confirmer Confirmer
	Notifier  Notifier
	Guard     *inflight.Guard
	Logouter  Logouter
	Logger    *slog.Logger
}

// State is a copy of everything a front end renders.
type State[T any] struct {
	Query        api.Query
	StagedSearch string
	Items        []T
	TotalPages   int
	TotalItems   int
	Selected     []string
	Status       Status
	Err          error
}

// Controller manages one paged collection.
type Controller[T any] struct {
	desc    *resource.Descriptor[T]
	coll    Collection[T]
	confirm Confirmer
	notify  Notifier
	guard   *inflight.Guard
	logout  Logouter
	logger  *slog.Logger

	mu        sync.Mutex
	query     api.Query
	staged    string
	result    api.Page[T]
	selection map[string]struct{}
	status    Status
	err       error
	seq       uint64
}

// New creates a controller for desc backed by coll. It does not fetch.
func New[T any](desc *resource.Descriptor[T], coll Collection[T], opts Options) *Controller[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	sort := desc.DefaultSort

	return &Controller[T]{
		desc:      desc,
		coll:      coll,
		confirm:   opts.Confirmer,
		notify:    opts.Notifier,
		guard:     opts.Guard,
		logout:    opts.Logouter,
		logger:    logger.With("component", "paging", "resource", desc.Endpoint.Plural),
		query:     api.Query{Page: 1, PageSize: pageSize, Sort: &sort, Filters: map[string]string{}},
		result:    api.Page[T]{Items: []T{}},
		selection: make(map[string]struct{}),
		status:    StatusIdle,
	}
}

// Descriptor returns the resource descriptor.
func (c *Controller[T]) Descriptor() *resource.Descriptor[T] {
	return c.desc
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State[T]{
		Query:        c.query.Clone(),
		StagedSearch: c.staged,
		Items:        slices.Clone(c.result.Items),
		TotalPages:   c.result.TotalPages,
		TotalItems:   c.result.TotalItems,
		Selected:     c.selectedLocked(),
		Status:       c.status,
		Err:          c.err,
	}
}

// Load fetches the current page with the current query.
func (c *Controller[T]) Load(ctx context.Context) error {
	return c.fetch(ctx)
}

// SetPage moves to page n (at least 1) and fetches it. An out-of-range
// page is clamped once the response reports the real page count.
func (c *Controller[T]) SetPage(ctx context.Context, n int) error {
	c.mu.Lock()
	c.query.Page = max(n, 1)
	c.mu.Unlock()
	return c.fetch(ctx)
}

// NextPage advances one page if there is one.
func (c *Controller[T]) NextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.query.Page >= c.result.TotalPages {
		c.mu.Unlock()
		return nil
	}
	c.query.Page++
	c.mu.Unlock()
	return c.fetch(ctx)
}

// PrevPage goes back one page if not on the first.
func (c *Controller[T]) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	if c.query.Page <= 1 {
		c.mu.Unlock()
		return nil
	}
	c.query.Page--
	c.mu.Unlock()
	return c.fetch(ctx)
}

// SetPageSize changes the page size, returns to page 1 and fetches.
func (c *Controller[T]) SetPageSize(ctx context.Context, n int) error {
	if n <= 0 {
		return apierr.NewValidationError(map[string]string{"per_page": "Page size must be positive"})
	}
	c.mu.Lock()
	c.query.PageSize = n
	c.query.Page = 1
	c.mu.Unlock()
	return c.fetch(ctx)
}

// ToggleSort sorts by key. The current key flips direction; a new key
// starts ascending. Either way the page resets to 1.
func (c *Controller[T]) ToggleSort(ctx context.Context, key string) error {
	if err := c.desc.CheckSort(key); err != nil {
		return err
	}

	c.mu.Lock()
	if c.query.Sort != nil && c.query.Sort.Key == key {
		c.query.Sort.Direction = c.query.Sort.Direction.Flip()
	} else {
		c.query.Sort = &api.Sort{Key: key, Direction: api.SortAsc}
	}
	c.query.Page = 1
	c.mu.Unlock()
	return c.fetch(ctx)
}

// StageSearch records search text without fetching.
func (c *Controller[T]) StageSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staged = text
}

// SubmitSearch applies the staged text, returns to page 1 and fetches
// exactly once.
func (c *Controller[T]) SubmitSearch(ctx context.Context) error {
	c.mu.Lock()
	c.query.Search = c.staged
	c.query.Page = 1
	c.mu.Unlock()
	return c.fetch(ctx)
}

// Search stages text and submits it.
func (c *Controller[T]) Search(ctx context.Context, text string) error {
	c.StageSearch(text)
	return c.SubmitSearch(ctx)
}

// SetFilter sets one filter (an empty value removes it), returns to page
// 1 and fetches.
func (c *Controller[T]) SetFilter(ctx context.Context, key, value string) error {
	if err := c.desc.CheckFilter(key); err != nil {
		return err
	}

	c.mu.Lock()
	if c.query.Filters == nil {
		c.query.Filters = map[string]string{}
	}
	if value == "" {
		delete(c.query.Filters, key)
	} else {
		c.query.Filters[key] = value
	}
	c.query.Page = 1
	c.mu.Unlock()
	return c.fetch(ctx)
}

// ClearFilters drops every filter, returns to page 1 and fetches.
func (c *Controller[T]) ClearFilters(ctx context.Context) error {
	c.mu.Lock()
	c.query.Filters = map[string]string{}
	c.query.Page = 1
	c.mu.Unlock()
	return c.fetch(ctx)
}

// Apply replaces the whole query at once, for front ends that collect
// every parameter up front. Sort and filter keys are checked first; a nil
// sort keeps the current one. It fetches exactly once.
func (c *Controller[T]) Apply(ctx context.Context, q api.Query) error {
	if q.Sort != nil {
		if err := c.desc.CheckSort(q.Sort.Key); err != nil {
			return err
		}
	}
	for key := range q.Filters {
		if err := c.desc.CheckFilter(key); err != nil {
			return err
		}
	}

	q = q.Clone()
	c.mu.Lock()
	if q.Sort == nil {
		sort := *c.query.Sort
		q.Sort = &sort
	}
	if q.Sort.Direction == "" {
		q.Sort.Direction = api.SortAsc
	}
	if q.PageSize <= 0 {
		q.PageSize = c.query.PageSize
	}
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	q.Page = max(q.Page, 1)
	c.query = q
	c.staged = q.Search
	c.mu.Unlock()
	return c.fetch(ctx)
}

// fetch issues a list request and applies the response only if no newer
// request was issued meanwhile.
func (c *Controller[T]) fetch(ctx context.Context) error {
	var seq uint64
	for range maxClampRefetches {
		c.mu.Lock()
		c.seq++
		seq = c.seq
		q := c.query.Clone()
		c.status = StatusLoading
		c.mu.Unlock()

		page, err := c.coll.List(ctx, q)

		c.mu.Lock()
		if seq != c.seq {
			c.mu.Unlock()
			c.logger.Debug("discarded stale response", "seq", seq, "search", q.Search, "page", q.Page)
			return nil
		}

		if err != nil {
			c.status = StatusError
			c.err = err
			c.mu.Unlock()
			c.fail(ctx, err, "Failed to fetch "+c.desc.Endpoint.Plural)
			return err
		}

		c.result = *page
		c.status = StatusReady
		c.err = nil
		c.pruneSelectionLocked()

		clamped := false
		switch {
		case page.TotalPages > 0 && c.query.Page > page.TotalPages:
			c.query.Page = page.TotalPages
			clamped = true
		case page.TotalPages == 0 && c.query.Page != 1:
			c.query.Page = 1
			clamped = true
		}
		c.mu.Unlock()

		if !clamped {
			return nil
		}
		c.logger.Debug("page clamped", "requested", q.Page, "total_pages", page.TotalPages)
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusError
	c.err = ErrPageUnsettled
	page := c.query.Page
	c.mu.Unlock()
	c.logger.Warn("page still out of range after refetching", "page", page, "attempts", maxClampRefetches)
	return ErrPageUnsettled
}

// fail routes an error to the user: a forced logout for a rejected
// session, and an error notification.
func (c *Controller[T]) fail(ctx context.Context, err error, message string) {
	if apierr.IsUnauthorized(err) && c.logout != nil {
		c.logout.ForceLogout(ctx)
	}
	c.push(message, notify.KindError)
}

func (c *Controller[T]) push(message string, kind notify.Kind) {
	if c.notify != nil {
		c.notify.Push(message, kind)
	}
}
