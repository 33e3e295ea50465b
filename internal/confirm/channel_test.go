// ABOUTME: Tests for the single-slot confirmation channel
// ABOUTME: Covers confirm, cancel, abandon, context cancellation and the pending guard

package confirm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_Confirm(t *testing.T) {
	c := New(nil)
	done := make(chan Request, 1)
	go func() {
		req := <-c.Requests()
		_ = c.Resolve(req.ID, true)
		done <- req
	}()

	ok, err := c.Request(context.Background(), Params{
		Title:   "Delete College",
		Message: "Are you sure you want to delete this college?",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	req := <-done
	assert.Equal(t, "Delete College", req.Params.Title)
	assert.Equal(t, "Confirm", req.Params.ConfirmLabel)
	assert.Equal(t, "Cancel", req.Params.CancelLabel)
	assert.Equal(t, SeverityDestructive, req.Params.Severity)

	_, pending := c.Pending()
	assert.False(t, pending)
}

func TestChannel_Cancel(t *testing.T) {
	c := New(nil)
	go func() {
		req := <-c.Requests()
		_ = c.Resolve(req.ID, false)
	}()

	ok, err := c.Request(context.Background(), Params{Title: "Delete"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChannel_SecondRequestWhilePending(t *testing.T) {
	c := New(nil)
	result := make(chan bool, 1)
	go func() {
		ok, _ := c.Request(context.Background(), Params{Title: "first"})
		result <- ok
	}()

	req := <-c.Requests()

	_, err := c.Request(context.Background(), Params{Title: "second"})
	assert.ErrorIs(t, err, ErrPending)

	pending, ok := c.Pending()
	require.True(t, ok)
	assert.Equal(t, "first", pending.Params.Title, "first request is not overwritten")

	require.NoError(t, c.Resolve(req.ID, true))
	assert.True(t, <-result)
}

func TestChannel_Abandon(t *testing.T) {
	c := New(nil)
	go func() {
		req := <-c.Requests()
		_ = c.Abandon(req.ID)
	}()

	ok, err := c.Request(context.Background(), Params{Title: "Delete"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChannel_ContextCancelIsCancel(t *testing.T) {
	c := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ok, err := c.Request(ctx, Params{Title: "Delete"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, pending := c.Pending()
	assert.False(t, pending, "slot is freed for the next request")
}

func TestChannel_ResolveIsExactlyOnce(t *testing.T) {
	c := New(nil)
	second := make(chan error, 1)
	go func() {
		req := <-c.Requests()
		_ = c.Resolve(req.ID, true)
		second <- c.Resolve(req.ID, false)
	}()

	ok, err := c.Request(context.Background(), Params{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, <-second, ErrNotPending)
}

func TestChannel_ResolveUnknownID(t *testing.T) {
	c := New(nil)
	assert.ErrorIs(t, c.Resolve("nope", true), ErrNotPending)
}
