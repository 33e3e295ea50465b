// ABOUTME: Tests for the per-key mutation guard
// ABOUTME: Covers exclusivity, release, expiry, eviction and concurrent claims

package inflight

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard_ExclusiveUntilRelease(t *testing.T) {
	g := New(time.Minute, 10)
	defer g.Close()

	assert.True(t, g.TryAcquire("students/2021-0001"))
	assert.False(t, g.TryAcquire("students/2021-0001"), "second claim must fail")
	assert.True(t, g.TryAcquire("students/2021-0002"), "other keys are independent")

	g.Release("students/2021-0001")
	assert.False(t, g.Held("students/2021-0001"))
	assert.True(t, g.TryAcquire("students/2021-0001"))
}

func TestGuard_ReleaseUnknownIsNoop(t *testing.T) {
	g := New(time.Minute, 10)
	defer g.Close()

	g.Release("nothing")
	assert.Equal(t, 0, g.Len())
}

func TestGuard_ExpiredClaimCanBeRetaken(t *testing.T) {
	g := New(time.Second, 10)
	defer g.Close()

	now := time.Now()
	g.now = func() time.Time { return now }

	assert.True(t, g.TryAcquire("k"))
	now = now.Add(2 * time.Second)
	assert.False(t, g.Held("k"))
	assert.True(t, g.TryAcquire("k"))
}

func TestGuard_FullOfLiveClaimsRefuses(t *testing.T) {
	g := New(time.Minute, 2)
	defer g.Close()

	assert.True(t, g.TryAcquire("a"))
	assert.True(t, g.TryAcquire("b"))
	assert.False(t, g.TryAcquire("c"), "no room while every claim is live")

	assert.True(t, g.Held("a"))
	assert.True(t, g.Held("b"))
	assert.False(t, g.TryAcquire("a"), "a live claim is never evicted")
	assert.Equal(t, 2, g.Len())

	g.Release("a")
	assert.True(t, g.TryAcquire("c"))
}

func TestGuard_FullEvictsExpiredClaims(t *testing.T) {
	g := New(time.Second, 2)
	defer g.Close()

	now := time.Now()
	g.now = func() time.Time { return now }

	assert.True(t, g.TryAcquire("a"))
	now = now.Add(500 * time.Millisecond)
	assert.True(t, g.TryAcquire("b"))
	now = now.Add(700 * time.Millisecond)

	assert.True(t, g.TryAcquire("c"), "expired a makes room")
	assert.False(t, g.Held("a"))
	assert.True(t, g.Held("b"))
	assert.True(t, g.Held("c"))
	assert.Equal(t, 2, g.Len())
}

func TestGuard_ExpireSweep(t *testing.T) {
	g := New(time.Second, 10)
	defer g.Close()

	now := time.Now()
	g.now = func() time.Time { return now }
	g.TryAcquire("a")
	now = now.Add(time.Hour)
	g.expire()

	assert.Equal(t, 0, g.Len())
}

func TestGuard_ConcurrentClaimsOnlyOneWins(t *testing.T) {
	g := New(time.Minute, 10)
	defer g.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire("same") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestGuard_CloseTwice(t *testing.T) {
	g := New(time.Minute, 10)
	g.Close()
	g.Close()
}
