// Package transport defines the boundary between piecework and the real-time
// connection layer that delivers raw events and performs outbound sends.
//
// The connection layer itself lives outside this module. Anything that can
// produce a stream of Event values and send text to a channel can drive a
// piecework client; Memory is the in-process implementation used by tests and
// examples.
package transport

import (
	"context"
	"time"
)

// Well-known event names emitted by a transport.
const (
	EventMessage = "message"
	EventReady   = "ready"
)

// User identifies a message author or the host account itself.
type User struct {
	ID       string
	Username string
	// Bot is true for automated accounts.
	Bot bool
}

// Channel identifies where a message was posted.
type Channel struct {
	ID string
	// Private is true for direct-message contexts.
	Private bool
	// NSFW is true when the channel permits restricted content.
	NSFW bool
}

// Message is the inbound envelope for a chat message.
type Message struct {
	ID        string
	Content   string
	Author    User
	Channel   Channel
	CreatedAt time.Time
}

// OlderThan reports whether the message was created more than d before now.
func (m *Message) OlderThan(d time.Duration, now time.Time) bool {
	return m.CreatedAt.Before(now.Add(-d))
}

// Event is a raw inbound event. Payload is *Message for EventMessage and
// nil for EventReady; custom transports may emit anything else.
type Event struct {
	Name    string
	Payload any
}

// Application describes who owns the host application.
// Either OwnerID is set (single owner) or TeamMemberIDs (team ownership).
type Application struct {
	OwnerID       string
	TeamMemberIDs []string
}

// OwnerIDs returns every identity that owns the application.
func (a Application) OwnerIDs() []string {
	if len(a.TeamMemberIDs) > 0 {
		ids := make([]string, len(a.TeamMemberIDs))
		copy(ids, a.TeamMemberIDs)
		return ids
	}
	if a.OwnerID == "" {
		return nil
	}
	return []string{a.OwnerID}
}

// Transport is the connection layer consumed by the host runtime.
type Transport interface {
	// Events returns the inbound event stream. It is closed when the
	// connection shuts down.
	Events() <-chan Event

	// Self returns the host identity. ok is false until the connection
	// has identified itself (typically right before the ready event).
	Self() (user User, ok bool)

	// Send posts text to a channel.
	Send(ctx context.Context, channelID, text string) error

	// FetchApplication returns ownership metadata for the host application.
	FetchApplication(ctx context.Context) (Application, error)
}

// SweepStats reports how many cached entries a sweep reclaimed, by kind.
type SweepStats struct {
	Presences    int
	Members      int
	VoiceStates  int
	Users        int
	Emojis       int
	LastMessages int
}

// Total returns the sum of all reclaimed entries.
func (s SweepStats) Total() int {
	return s.Presences + s.Members + s.VoiceStates + s.Users + s.Emojis + s.LastMessages
}

// Sweepable is implemented by transports that keep reclaimable caches.
type Sweepable interface {
	// Sweep drops cached entries whose last activity is before cutoff.
	Sweep(cutoff time.Time) SweepStats
}
