/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package animlock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type expiry struct {
	clock   *Manual
	lock    *Lock
	expired []Reason
}

func newExpiry(grace time.Duration) *expiry {
	e := &expiry{clock: NewManual(epoch)}
	e.lock = New(e.clock, e.clock.Now, grace, func(tok Token) {
		if reason, ok := e.lock.Expire(tok); ok {
			e.expired = append(e.expired, reason)
		}
	})

	return e
}

func TestAcquireBlocksAllButAllowList(t *testing.T) {
	e := newExpiry(time.Second)

	assert.True(t, e.lock.Permits("draw_card"))

	_, err := e.lock.Acquire(Animation, 3300*time.Millisecond, "choose_color")
	require.NoError(t, err)

	assert.True(t, e.lock.Held())
	assert.Equal(t, epoch.Add(3300*time.Millisecond), e.lock.Deadline())
	assert.False(t, e.lock.Permits("draw_card"))
	assert.False(t, e.lock.Permits("play_card"))
	assert.True(t, e.lock.Permits("choose_color"))

	require.NoError(t, e.lock.Release(Animation))
	assert.False(t, e.lock.Held())
	assert.True(t, e.lock.Deadline().IsZero())
	assert.True(t, e.lock.Permits("draw_card"))
}

func TestWinnerLockOnlyReleasedByWinnerSignal(t *testing.T) {
	e := newExpiry(time.Second)

	_, err := e.lock.Acquire(Winner, 6*time.Second)
	require.NoError(t, err)

	assert.ErrorIs(t, e.lock.Release(Animation), ErrWinnerSequence)
	assert.True(t, e.lock.Held())

	_, err = e.lock.Acquire(Animation, time.Second)
	assert.ErrorIs(t, err, ErrWinnerSequence)
	assert.Equal(t, Winner, e.lock.Reason())

	require.NoError(t, e.lock.Release(Winner))
	assert.False(t, e.lock.Held())
}

func TestWinnerSignalDoesNotClearAnimation(t *testing.T) {
	e := newExpiry(time.Second)

	_, err := e.lock.Acquire(Animation, time.Second)
	require.NoError(t, err)

	assert.ErrorIs(t, e.lock.Release(Winner), ErrWrongReason)
	assert.True(t, e.lock.Held())
}

func TestReleaseWhenFree(t *testing.T) {
	e := newExpiry(time.Second)
	assert.ErrorIs(t, e.lock.Release(Animation), ErrNotHeld)
}

func TestFallbackReleaseAfterGrace(t *testing.T) {
	e := newExpiry(2 * time.Second)

	_, err := e.lock.Acquire(Animation, 3*time.Second)
	require.NoError(t, err)

	e.clock.Advance(4 * time.Second)
	assert.True(t, e.lock.Held(), "still inside the grace period")

	e.clock.Advance(time.Second)
	assert.False(t, e.lock.Held())
	assert.Equal(t, []Reason{Animation}, e.expired)
}

func TestFallbackNeverFiresAfterRelease(t *testing.T) {
	e := newExpiry(time.Second)

	tok, err := e.lock.Acquire(Animation, time.Second)
	require.NoError(t, err)
	require.NoError(t, e.lock.Release(Animation))
	assert.Zero(t, e.clock.Pending())

	_, err = e.lock.Acquire(Animation, 10*time.Second)
	require.NoError(t, err)

	_, ok := e.lock.Expire(tok)
	assert.False(t, ok, "stale token must not clear a newer acquisition")
	assert.True(t, e.lock.Held())

	e.clock.Advance(5 * time.Second)
	assert.Empty(t, e.expired)
}

func TestReacquireReplacesFallback(t *testing.T) {
	e := newExpiry(time.Second)

	_, err := e.lock.Acquire(Animation, time.Second)
	require.NoError(t, err)
	_, err = e.lock.Acquire(Animation, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, e.clock.Pending())

	e.clock.Advance(3 * time.Second)
	assert.True(t, e.lock.Held())

	e.clock.Advance(3 * time.Second)
	assert.False(t, e.lock.Held())
}

func TestCancel(t *testing.T) {
	e := newExpiry(time.Second)

	_, err := e.lock.Acquire(Winner, time.Second)
	require.NoError(t, err)

	e.lock.Cancel()
	assert.False(t, e.lock.Held())
	assert.Equal(t, None, e.lock.Reason())
	assert.Zero(t, e.clock.Pending())
}
