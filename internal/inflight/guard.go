// ABOUTME: Thread-safe per-key guard that stops a second mutation on the same record
// ABOUTME: Entries expire after a TTL so a crashed caller cannot wedge a key forever

// Package inflight tracks which record keys have a mutation in progress.
package inflight

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	acquired time.Time
	element  *list.Element
}

// Guard holds at most one claim per key. Claims older than ttl are treated
// as released. A full guard makes room only by dropping expired claims;
// live claims are never evicted.
type Guard struct {
	mu      sync.Mutex
	held    map[string]*entry
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a guard. A background goroutine sweeps expired claims.
func New(ttl time.Duration, maxSize int) *Guard {
	if maxSize <= 0 {
		maxSize = 1024
	}
	g := &Guard{
		held:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go g.sweep()
	return g
}

// TryAcquire claims key. It returns false if the key is already claimed
// and the claim has not expired, or if the guard is full of live claims.
// Check and claim happen under one lock.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.held[key]; ok {
		if g.now().Sub(e.acquired) < g.ttl {
			return false
		}
		g.order.Remove(e.element)
		delete(g.held, key)
	}

	if len(g.held) >= g.maxSize {
		g.evictExpired()
		if len(g.held) >= g.maxSize {
			return false
		}
	}

	g.held[key] = &entry{
		acquired: g.now(),
		element:  g.order.PushBack(key),
	}
	return true
}

// Release drops the claim on key. Releasing an unclaimed key is a no-op.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.held[key]; ok {
		g.order.Remove(e.element)
		delete(g.held, key)
	}
}

// Held reports whether key has a live claim.
func (g *Guard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.held[key]
	return ok && g.now().Sub(e.acquired) < g.ttl
}

// Len returns the number of claims, expired or not.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

// evictExpired drops expired claims from the front of the order list.
// Must be called with mu held.
func (g *Guard) evictExpired() {
	now := g.now()
	for front := g.order.Front(); front != nil; front = g.order.Front() {
		key, _ := front.Value.(string)
		if now.Sub(g.held[key].acquired) < g.ttl {
			return
		}
		g.order.Remove(front)
		delete(g.held, key)
	}
}

func (g *Guard) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.expire()
		case <-g.done:
			return
		}
	}
}

func (g *Guard) expire() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, e := range g.held {
		if now.Sub(e.acquired) >= g.ttl {
			g.order.Remove(e.element)
			delete(g.held, key)
		}
	}
}

// Close stops the sweeper. Safe to call more than once.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.closed {
		close(g.done)
		g.closed = true
	}
}
