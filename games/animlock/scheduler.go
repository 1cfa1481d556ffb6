/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package animlock

import (
	"sort"
	"sync"
	"time"
)

// Timer is the part of *time.Timer the engine needs.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Every timer in the engine goes through one,
// so tests can drive time by hand.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realtime struct{}

func (realtime) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Realtime schedules on the wall clock.
var Realtime Scheduler = realtime{}

// Manual is a Scheduler and clock that only moves when Advance is called.
// Due callbacks run synchronously on the caller's goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	m       *Manual
	due     time.Time
	seq     int
	f       func()
	stopped bool
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{m: m, due: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)

	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	wasActive := !t.stopped
	t.stopped = true

	return wasActive
}

// Pending counts timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}

	return n
}

// Advance moves the clock forward by d, firing due timers in order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.timers, func(i, j int) bool {
			if m.timers[i].due.Equal(m.timers[j].due) {
				return m.timers[i].seq < m.timers[j].seq
			}
			return m.timers[i].due.Before(m.timers[j].due)
		})

		var next *manualTimer
		for _, t := range m.timers {
			if !t.stopped && !t.due.After(target) {
				next = t
				break
			}
		}

		if next == nil {
			m.now = target
			m.compact()
			m.mu.Unlock()

			return
		}

		next.stopped = true
		if next.due.After(m.now) {
			m.now = next.due
		}
		m.mu.Unlock()

		next.f()
	}
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}
