// ABOUTME: Tests for the notification queue
// ABOUTME: Covers ordering, auto-expiry, dismissal, independent timers and subscriber events

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messages(q *Queue) []string {
	var out []string
	for _, n := range q.List() {
		out = append(out, n.Message)
	}
	return out
}

func TestQueue_ArrivalOrder(t *testing.T) {
	q := New(time.Minute, nil)
	defer q.Close()

	q.Success("College created successfully")
	q.Error("Failed to fetch colleges")
	q.Info("Logged out")

	assert.Equal(t, []string{
		"College created successfully",
		"Failed to fetch colleges",
		"Logged out",
	}, messages(q))

	kinds := []Kind{}
	for _, n := range q.List() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []Kind{KindSuccess, KindError, KindInfo}, kinds)
}

func TestQueue_IDsAreUnique(t *testing.T) {
	q := New(time.Minute, nil)
	defer q.Close()

	a := q.Info("a")
	b := q.Info("a")
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestQueue_AutoExpiry(t *testing.T) {
	q := New(30*time.Millisecond, nil)
	defer q.Close()

	q.Info("short lived")
	require.Len(t, q.List(), 1)

	assert.Eventually(t, func() bool {
		return len(q.List()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestQueue_DismissLeavesOthers(t *testing.T) {
	q := New(time.Minute, nil)
	defer q.Close()

	first := q.Info("first")
	q.Info("second")

	assert.True(t, q.Dismiss(first))
	assert.False(t, q.Dismiss(first), "second dismiss is a no-op")
	assert.Equal(t, []string{"second"}, messages(q))
}

func TestQueue_DismissDoesNotResetOtherTimers(t *testing.T) {
	q := New(50*time.Millisecond, nil)
	defer q.Close()

	a := q.Info("a")
	time.Sleep(20 * time.Millisecond)
	q.Info("b")
	q.Dismiss(a)

	assert.Eventually(t, func() bool {
		return len(q.List()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestQueue_DefaultDuration(t *testing.T) {
	q := New(0, nil)
	defer q.Close()
	assert.Equal(t, DefaultDuration, q.duration)
}

func TestQueue_SubscriberSeesPushAndRemove(t *testing.T) {
	q := New(time.Minute, nil)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _ := q.Subscribe(ctx)

	id := q.Success("Student deleted successfully")
	q.Dismiss(id)

	ev := <-events
	assert.Equal(t, EventPushed, ev.Type)
	assert.Equal(t, "Student deleted successfully", ev.Notification.Message)

	ev = <-events
	assert.Equal(t, EventRemoved, ev.Type)
	assert.Equal(t, id, ev.Notification.ID)
}

func TestQueue_SubscriptionEndsWithContext(t *testing.T) {
	q := New(time.Minute, nil)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, _ := q.Subscribe(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestQueue_CloseStopsEverything(t *testing.T) {
	q := New(time.Minute, nil)
	events, _ := q.Subscribe(context.Background())
	q.Info("pending")

	q.Close()
	q.Close()

	assert.Empty(t, q.List())
	assert.Empty(t, q.Push("after close", KindInfo))

	// drain the pushed event, then the channel must be closed
	<-events
	_, ok := <-events
	assert.False(t, ok)
}

func TestQueue_CloseReleasesBackgroundSubscriptions(t *testing.T) {
	q := New(time.Minute, nil)
	var chans []<-chan Event
	for range 3 {
		ch, _ := q.Subscribe(context.Background())
		chans = append(chans, ch)
	}

	closed := make(chan struct{})
	go func() {
		q.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close waited on subscriptions whose context never ends")
	}

	for _, ch := range chans {
		_, ok := <-ch
		assert.False(t, ok)
	}

	late, _ := q.Subscribe(context.Background())
	_, ok := <-late
	assert.False(t, ok, "subscribing after close yields a closed channel")
}
