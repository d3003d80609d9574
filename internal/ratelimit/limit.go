// Package ratelimit implements fixed-window request counters with an
// in-memory and a Redis-backed store.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Limit is a request threshold over a fixed window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// PerMinute returns a Limit of n requests per minute.
func PerMinute(n int) Limit {
	return Limit{Requests: n, Window: time.Minute}
}

// String renders the limit the way clients see it, e.g. "30 per 1 minute".
func (l Limit) String() string {
	switch {
	case l.Window%time.Hour == 0:
		return fmt.Sprintf("%d per %d %s", l.Requests, int(l.Window/time.Hour), plural(int(l.Window/time.Hour), "hour"))
	case l.Window%time.Minute == 0:
		return fmt.Sprintf("%d per %d %s", l.Requests, int(l.Window/time.Minute), plural(int(l.Window/time.Minute), "minute"))
	default:
		secs := int(math.Ceil(l.Window.Seconds()))
		return fmt.Sprintf("%d per %d %s", l.Requests, secs, plural(secs, "second"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// Result describes the state of a bucket after one hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is the time left until the current window ends.
	ResetAfter time.Duration
}

// RetryAfterSeconds is ResetAfter rounded up to whole seconds, never below 1.
func (r Result) RetryAfterSeconds() int {
	secs := int(math.Ceil(r.ResetAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Store counts hits per bucket key.
type Store interface {
	// Take records one hit on key and reports whether it fits within l.
	Take(ctx context.Context, key string, l Limit) (Result, error)
}

func newResult(count int, l Limit, resetAfter time.Duration) Result {
	remaining := l.Requests - count
	if remaining < 0 {
		remaining = 0
	}
	if resetAfter < 0 {
		resetAfter = 0
	}
	return Result{
		Allowed:    count <= l.Requests,
		Limit:      l.Requests,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}
}
