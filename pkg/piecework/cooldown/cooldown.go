// Package cooldown tracks time-boxed throttles on rate-limited pieces.
//
// Each key holds at most one entry. Entries expire on their own: a timer
// removes the entry at its expiry instant whether or not anyone asks about
// it again. Timers are cancelled when an entry is refreshed, cancelled, or
// when the manager stops.
package cooldown

import (
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Manager tracks active cooldowns by key.
// It is safe for concurrent use; expiry callbacks run on timer goroutines.
type Manager struct {
	mu       sync.Mutex
	entries  map[string]*entry
	now      func() time.Time
	onExpire func(key string)
	stopped  bool
}

type entry struct {
	expiresAt time.Time
	timer     *time.Timer
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for expiry arithmetic.
// Timers still fire on real time.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithOnExpire registers a callback invoked after an entry expires on its own.
// It is not called for Cancel or Stop.
func WithOnExpire(fn func(key string)) Option {
	return func(m *Manager) {
		m.onExpire = fn
	}
}

// New creates an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start sets key's expiry to now+d and arms a timer that removes it.
// An existing entry for key is replaced and its timer cancelled.
// A non-positive d clears any entry and creates none.
func (m *Manager) Start(key string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	if prev, ok := m.entries[key]; ok {
		prev.timer.Stop()
		delete(m.entries, key)
	}
	if d <= 0 {
		return
	}

	e := &entry{expiresAt: m.now().Add(d)}
	e.timer = time.AfterFunc(d, func() { m.expire(key, e) })
	m.entries[key] = e
}

// expire removes key only if it still maps to e; a refreshed entry has its
// own timer.
func (m *Manager) expire(key string, e *entry) {
	m.mu.Lock()
	cur, ok := m.entries[key]
	if !ok || cur != e {
		m.mu.Unlock()
		return
	}
	delete(m.entries, key)
	onExpire := m.onExpire
	m.mu.Unlock()

	if onExpire != nil {
		onExpire(key)
	}
}

// IsActive reports whether key has an unexpired entry.
func (m *Manager) IsActive(key string) bool {
	_, ok := m.Remaining(key)
	return ok
}

// Remaining returns the time left on key's entry.
// ok is false when no unexpired entry exists.
func (m *Manager) Remaining(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return 0, false
	}
	left := e.expiresAt.Sub(m.now())
	if left <= 0 {
		return 0, false
	}
	return left, true
}

// Humanized returns the time left on key as "in 30 seconds" style text.
// ok is false when no unexpired entry exists.
func (m *Manager) Humanized(key string) (string, bool) {
	left, ok := m.Remaining(key)
	if !ok {
		return "", false
	}
	return Humanize(left), true
}

// Cancel removes key's entry and stops its timer.
// It reports whether an entry existed.
func (m *Manager) Cancel(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(m.entries, key)
	return true
}

// Len returns the number of entries, including any whose timer has not yet fired.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stop cancels every timer and rejects further Start calls.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		e.timer.Stop()
		delete(m.entries, key)
	}
	m.stopped = true
}

// Humanize renders d as "in N seconds", "in 2 minutes" and so on.
// d is rounded up to the next whole second and never reads as "now".
func Humanize(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	d = (d + time.Second - 1).Truncate(time.Second)

	base := time.Unix(0, 0)
	return "in " + strings.TrimSpace(humanize.RelTime(base, base.Add(d), "", ""))
}
