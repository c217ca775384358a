package webhook

import (
	"sync"
	"time"
)

// Debouncer lets one push per repository through within a time window.
type Debouncer struct {
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
	mu     sync.Mutex
}

// NewDebouncer creates a new debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether a push should start a run. It returns false if a
// push for the same repository was allowed within the window.
func (d *Debouncer) Allow(push TagPush) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := push.Key()
	now := d.now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[key] = now
	d.cleanup(now)
	return true
}

// cleanup drops entries that can no longer suppress anything.
func (d *Debouncer) cleanup(now time.Time) {
	threshold := now.Add(-d.window)
	for key, t := range d.seen {
		if t.Before(threshold) {
			delete(d.seen, key)
		}
	}
}
