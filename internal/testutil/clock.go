// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually driven clock for readiness-wait tests.
//
// In the default mode time only moves when Advance is called. With
// AutoAdvance enabled, every After call moves time forward by the requested
// duration and fires immediately, so polling loops run to completion without
// real sleeps.
type FakeClock struct {
	mu          sync.Mutex
	current     time.Time
	autoAdvance bool
	waiters     []waiter
	afterCalls  int
}

// waiter tracks a pending After() call.
type waiter struct {
	target time.Time
	ch     chan time.Time
}

// NewFakeClock creates a FakeClock initialized to the given time.
// If initial is zero, defaults to a fixed reference time for reproducibility.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &FakeClock{current: initial}
}

// NewAutoClock creates a FakeClock in AutoAdvance mode.
func NewAutoClock() *FakeClock {
	c := NewFakeClock(time.Time{})
	c.autoAdvance = true
	return c
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the fake time reaches now+d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.afterCalls++
	ch := make(chan time.Time, 1)
	if c.autoAdvance {
		if d > 0 {
			c.current = c.current.Add(d)
		}
		ch <- c.current
		c.notifyWaiters()
		return ch
	}
	if d <= 0 {
		ch <- c.current
		return ch
	}
	c.waiters = append(c.waiters, waiter{target: c.current.Add(d), ch: ch})
	return ch
}

// Advance moves the fake time forward by d, firing due After channels.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	c.notifyWaiters()
}

// AfterCalls returns how many times After was called.
func (c *FakeClock) AfterCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.afterCalls
}

// notifyWaiters fires every waiter whose target has been reached.
// Must be called with mu held.
func (c *FakeClock) notifyWaiters() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if c.current.Before(w.target) {
			remaining = append(remaining, w)
			continue
		}
		select {
		case w.ch <- c.current:
		default:
		}
	}
	c.waiters = remaining
}
