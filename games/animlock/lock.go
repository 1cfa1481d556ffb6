/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package animlock gates room mutations while the shared display plays an
// animation whose real duration the server cannot observe.
package animlock

import (
	"errors"
	"time"
)

// Reason tells which kind of sequence holds the lock. Only the matching
// completion signal may release it.
type Reason int

const (
	None Reason = iota
	Animation
	Winner
)

func (r Reason) String() string {
	switch r {
	case Animation:
		return "animation"
	case Winner:
		return "winner"
	default:
		return "none"
	}
}

var (
	ErrNotHeld        = errors.New("no animation in progress")
	ErrWinnerSequence = errors.New("winner sequence in progress")
	ErrWrongReason    = errors.New("completion signal does not match the running animation")
)

// Token identifies one acquisition. Fallback callbacks carry the token they
// were scheduled with so a stale one can be told apart from a live one.
type Token uint64

// Lock is a single room's animation gate. It is not safe for concurrent use;
// onExpire is invoked from the scheduler's goroutine and is expected to hop
// back onto the room's own loop before calling Expire.
type Lock struct {
	sched    Scheduler
	now      func() time.Time
	grace    time.Duration
	onExpire func(Token)

	held     bool
	reason   Reason
	deadline time.Time
	allow    map[string]bool
	gen      Token
	timer    Timer
}

func New(sched Scheduler, now func() time.Time, grace time.Duration, onExpire func(Token)) *Lock {
	if now == nil {
		now = time.Now
	}

	return &Lock{
		sched:    sched,
		now:      now,
		grace:    grace,
		onExpire: onExpire,
	}
}

// Acquire marks the display busy for nominal and schedules a fallback
// release at deadline+grace. Action kinds in allow stay permitted.
// A winner sequence can only be replaced by another winner sequence.
func (l *Lock) Acquire(reason Reason, nominal time.Duration, allow ...string) (Token, error) {
	if l.held && l.reason == Winner && reason != Winner {
		return 0, ErrWinnerSequence
	}

	l.stopTimer()
	l.gen++

	l.held = true
	l.reason = reason
	l.deadline = l.now().Add(nominal)
	l.allow = make(map[string]bool, len(allow))
	for _, kind := range allow {
		l.allow[kind] = true
	}

	tok := l.gen
	if l.sched != nil && l.onExpire != nil {
		l.timer = l.sched.AfterFunc(nominal+l.grace, func() {
			l.onExpire(tok)
		})
	}

	return tok, nil
}

// Release clears the lock in response to a completion signal.
func (l *Lock) Release(reason Reason) error {
	if !l.held {
		return ErrNotHeld
	}

	if l.reason == Winner && reason != Winner {
		return ErrWinnerSequence
	}

	if reason == Winner && l.reason != Winner {
		return ErrWrongReason
	}

	l.clear()

	return nil
}

// Expire is the fallback path. It reports the reason that was cleared, or
// false when tok no longer names the live acquisition.
func (l *Lock) Expire(tok Token) (Reason, bool) {
	if !l.held || tok != l.gen {
		return None, false
	}

	reason := l.reason
	l.clear()

	return reason, true
}

// Cancel drops the lock regardless of reason, for restarts and teardown.
func (l *Lock) Cancel() {
	if l.held {
		l.clear()
	}
}

// Permits reports whether an action of the given kind may proceed.
func (l *Lock) Permits(kind string) bool {
	return !l.held || l.allow[kind]
}

func (l *Lock) Held() bool {
	return l.held
}

func (l *Lock) Reason() Reason {
	if !l.held {
		return None
	}

	return l.reason
}

// Deadline is the nominal end of the running animation, or the zero time.
func (l *Lock) Deadline() time.Time {
	if !l.held {
		return time.Time{}
	}

	return l.deadline
}

func (l *Lock) clear() {
	l.stopTimer()
	l.gen++
	l.held = false
	l.reason = None
	l.deadline = time.Time{}
	l.allow = nil
}

func (l *Lock) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}
