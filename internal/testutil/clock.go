package testutil

import (
	"sync"
	"time"
)

// FixedClock is a pinned wall-clock time source for tests.
//
// Code that computes availability windows or stamps identifiers takes a
// now-function; handing it FixedClock.Now makes those computations
// reproducible and lets golden files stay stable.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock pinned at now.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now returns the pinned time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the pinned time forward by d. Negative d moves it backward.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to a new time.
func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// MustTime parses an RFC 3339 timestamp and panics on failure.
//
// For test literals only; a malformed literal is a bug in the test.
func MustTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic("testutil: bad time literal " + value + ": " + err.Error())
	}
	return t
}
