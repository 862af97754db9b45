package streamfs

import (
	"context"
	"time"
)

// Timeout describes how long an operation may take. It carries an optional
// per-operation duration and an optional absolute deadline. Nothing in this
// package starts timers; callers poll Check or derive a context with Context.
type Timeout struct {
	timeout     time.Duration
	deadline    time.Time
	hasDeadline bool

	// none marks the shared NoTimeout value, which ignores setters
	none bool
}

// NoTimeout is a Timeout with neither a duration nor a deadline.
// It is shared, so its setters do nothing.
var NoTimeout = &Timeout{none: true}

// NewTimeout returns a Timeout with no duration and no deadline
func NewTimeout() *Timeout {
	return &Timeout{}
}

// SetTimeout sets the maximum duration of a single operation. Zero means no
// limit. Negative durations are treated as zero.
func (t *Timeout) SetTimeout(d time.Duration) *Timeout {
	if t.none {
		return t
	}
	if d < 0 {
		d = 0
	}
	t.timeout = d
	return t
}

// TimeoutDuration returns the per-operation duration, or zero for none
func (t *Timeout) TimeoutDuration() time.Duration {
	return t.timeout
}

// SetDeadline sets the absolute time after which work should stop
func (t *Timeout) SetDeadline(deadline time.Time) *Timeout {
	if t.none {
		return t
	}
	t.deadline = deadline
	t.hasDeadline = true
	return t
}

// Deadline returns the deadline and whether one is set
func (t *Timeout) Deadline() (time.Time, bool) {
	return t.deadline, t.hasDeadline
}

// ClearDeadline removes the deadline
func (t *Timeout) ClearDeadline() *Timeout {
	if t.none {
		return t
	}
	t.deadline = time.Time{}
	t.hasDeadline = false
	return t
}

// Check returns ErrTimeout if the deadline has been reached
func (t *Timeout) Check() error {
	if t.hasDeadline && !time.Now().Before(t.deadline) {
		return ErrTimeout
	}
	return nil
}

// Context derives a context from parent that is cancelled at the earlier of
// the deadline and now plus the per-operation duration.
func (t *Timeout) Context(parent context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := t.effectiveDeadline(time.Now())
	if !ok {
		return context.WithCancel(parent)
	}
	return context.WithDeadline(parent, deadline)
}

func (t *Timeout) effectiveDeadline(now time.Time) (time.Time, bool) {
	switch {
	case t.timeout > 0 && t.hasDeadline:
		d := now.Add(t.timeout)
		if t.deadline.Before(d) {
			return t.deadline, true
		}
		return d, true
	case t.timeout > 0:
		return now.Add(t.timeout), true
	case t.hasDeadline:
		return t.deadline, true
	default:
		return time.Time{}, false
	}
}
