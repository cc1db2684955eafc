package service

import (
	"sync"
	"time"

	"github.com/blake-osondu/jobdroid-service/model"
)

// budgetWindow is the rolling window over which the daily ceiling applies.
const budgetWindow = 24 * time.Hour

// RateBudget tracks per-platform action counts and grant times under a
// single mutex. It is owned by the Scheduler; nothing else mutates it.
type RateBudget struct {
	mu       sync.Mutex
	perDay   int
	minDelay time.Duration
	counters map[string]*platformCounter
}

type platformCounter struct {
	windowStart time.Time
	granted     int
	lastGrant   time.Time
}

// NewRateBudget creates a budget enforcing perDay actions per platform
// per rolling 24h window, with at least minDelay between actions.
func NewRateBudget(perDay int, minDelay time.Duration) *RateBudget {
	return &RateBudget{
		perDay:   perDay,
		minDelay: minDelay,
		counters: make(map[string]*platformCounter),
	}
}

// reserve attempts to claim one action on the platform at time now, with
// the given required spacing since the previous grant. It returns
// (0, nil) when the claim is granted, (wait, nil) when the caller must
// wait and try again, and ErrBudgetExhausted when the daily ceiling is
// reached. Grant and counter update are atomic.
//
// The configured delay is a hard floor on spacing: jitter may stretch
// the gap between grants but never shrink it below minDelay.
func (b *RateBudget) reserve(platform string, spacing time.Duration, now time.Time) (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if spacing < b.minDelay {
		spacing = b.minDelay
	}

	c, ok := b.counters[platform]
	if !ok {
		c = &platformCounter{windowStart: now}
		b.counters[platform] = c
	}

	if now.Sub(c.windowStart) >= budgetWindow {
		c.windowStart = now
		c.granted = 0
	}

	// Ceiling check comes first: callers beyond the ceiling fail
	// immediately instead of queueing for the next window.
	if c.granted >= b.perDay {
		return 0, model.ErrBudgetExhausted
	}

	if !c.lastGrant.IsZero() {
		elapsed := now.Sub(c.lastGrant)
		if elapsed < spacing {
			return spacing - elapsed, nil
		}
	}

	c.granted++
	c.lastGrant = now
	return 0, nil
}

// Granted returns the number of actions granted to the platform inside
// the current window.
func (b *RateBudget) Granted(platform string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.counters[platform]
	if !ok {
		return 0
	}
	if time.Since(c.windowStart) >= budgetWindow {
		return 0
	}
	return c.granted
}

// Remaining returns how many actions the platform may still take in the
// current window.
func (b *RateBudget) Remaining(platform string) int {
	remaining := b.perDay - b.Granted(platform)
	if remaining < 0 {
		return 0
	}
	return remaining
}
