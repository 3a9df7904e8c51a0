// Package cooldown implements the per-actor, per-action rate limiter used by the
// dispatcher, together with the background sweep that bounds its memory.
package cooldown

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweep defaults.
const (
	DefaultSweepInterval = 30 * time.Second
	DefaultSweepHorizon  = time.Hour
)

// Kind identifies an action class an actor is throttled on.
type Kind string

// KindCommand is the coarse "any command" throttle.
const KindCommand Kind = "command"

// CommandKind returns the per-command throttle kind for name.
func CommandKind(name string) Kind {
	return Kind("command:" + name)
}

// ContextKind returns the per-action throttle kind for a context action.
func ContextKind(name string) Kind {
	return Kind("context:" + name)
}

// Result is the outcome of a limit check.
type Result struct {
	Limited bool
	// RetryAt is when the current window ends. Set only when Limited.
	RetryAt time.Time
}

type entry struct {
	count     int
	lastUsage time.Time
}

// Tracker counts invocations per actor and kind inside fixed windows.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	horizon time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithHorizon sets how long an entry may go unused before the sweep drops it.
func WithHorizon(d time.Duration) Option {
	return func(t *Tracker) {
		t.horizon = d
	}
}

// NewTracker creates a new Tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		entries: make(map[string]*entry),
		now:     time.Now,
		horizon: DefaultSweepHorizon,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func key(actorID string, kind Kind) string {
	return actorID + "|" + string(kind)
}

// CheckLimit records one use of kind by actorID and reports whether it exceeds
// maxCount uses within window. The first use always passes. Once the window
// since the first use has elapsed the entry starts over.
func (t *Tracker) CheckLimit(actorID string, kind Kind, maxCount int, window time.Duration) Result {
	now := t.now()
	k := key(actorID, kind)

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[k]
	if !ok {
		t.entries[k] = &entry{count: 1, lastUsage: now}
		return Result{}
	}

	e.count++
	elapsed := now.Sub(e.lastUsage)

	if elapsed >= window {
		e.count = 1
		e.lastUsage = now
		return Result{}
	}

	if e.count >= maxCount {
		return Result{Limited: true, RetryAt: e.lastUsage.Add(window)}
	}
	return Result{}
}

// Sweep drops entries whose last usage is older than the horizon and returns
// how many were removed.
func (t *Tracker) Sweep() int {
	cutoff := t.now().Add(-t.horizon)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, e := range t.entries {
		if e.lastUsage.Before(cutoff) {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Run sweeps every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := t.Sweep(); removed > 0 {
				slog.Debug("swept cooldown entries", "removed", removed, "remaining", t.Len())
			}
		}
	}
}
