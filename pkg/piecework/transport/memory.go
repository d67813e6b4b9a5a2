package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Memory operations after Close.
var ErrClosed = errors.New("transport closed")

// Sent records one outbound Send call.
type Sent struct {
	ChannelID string
	Text      string
}

// Memory is an in-process Transport. Tests and examples push events with
// Deliver and inspect replies with Sent.
type Memory struct {
	mu      sync.Mutex
	events  chan Event
	self    User
	hasSelf bool
	app     Application
	appErr  error
	sent    []Sent
	closed  bool

	// users tracks the last activity per cached user for Sweep.
	users map[string]time.Time
}

// Compile-time interface checks.
var (
	_ Transport = (*Memory)(nil)
	_ Sweepable = (*Memory)(nil)
)

// NewMemory creates a Memory transport with the given event buffer size.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 64
	}
	return &Memory{
		events: make(chan Event, buffer),
		users:  make(map[string]time.Time),
	}
}

// Events implements Transport.
func (m *Memory) Events() <-chan Event {
	return m.events
}

// Self implements Transport.
func (m *Memory) Self() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.self, m.hasSelf
}

// SetSelf sets the host identity.
func (m *Memory) SetSelf(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.self = u
	m.hasSelf = true
}

// SetApplication sets the value returned by FetchApplication.
func (m *Memory) SetApplication(app Application, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.app = app
	m.appErr = err
}

// FetchApplication implements Transport.
func (m *Memory) FetchApplication(ctx context.Context) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.app, m.appErr
}

// Send implements Transport.
func (m *Memory) Send(ctx context.Context, channelID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.sent = append(m.sent, Sent{ChannelID: channelID, Text: text})
	return nil
}

// Sent returns a copy of every message sent so far.
func (m *Memory) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}

// ResetSent forgets recorded sends.
func (m *Memory) ResetSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// Deliver queues an inbound event. Message payloads also refresh the
// author's cache entry.
func (m *Memory) Deliver(evt Event) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if msg, ok := evt.Payload.(*Message); ok {
		seen := msg.CreatedAt
		if seen.IsZero() {
			seen = time.Now()
		}
		m.users[msg.Author.ID] = seen
	}
	m.mu.Unlock()

	m.events <- evt
	return nil
}

// DeliverMessage is shorthand for Deliver with an EventMessage.
func (m *Memory) DeliverMessage(msg *Message) error {
	return m.Deliver(Event{Name: EventMessage, Payload: msg})
}

// Sweep implements Sweepable by dropping users idle since before cutoff.
func (m *Memory) Sweep(cutoff time.Time) SweepStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats SweepStats
	for id, seen := range m.users {
		if m.hasSelf && id == m.self.ID {
			continue
		}
		if seen.After(cutoff) {
			continue
		}
		delete(m.users, id)
		stats.Users++
	}
	return stats
}

// CachedUsers returns the number of users currently cached.
func (m *Memory) CachedUsers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// Close closes the event stream. It is safe to call more than once.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.events)
	return nil
}
