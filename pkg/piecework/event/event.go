package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// Envelope is a transport event as seen by handlers: the original name and
// payload plus an ID and arrival time assigned by the emitter.
type Envelope struct {
	ID         string
	Name       string
	Payload    any
	ReceivedAt time.Time
}

// NewEnvelope wraps evt with a random ID and the current time.
func NewEnvelope(evt transport.Event) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Name:       evt.Name,
		Payload:    evt.Payload,
		ReceivedAt: time.Now(),
	}
}

func (e Envelope) String() string {
	return e.Name + "/" + e.ID
}

// Handler processes one delivered event.
type Handler interface {
	Handle(ctx context.Context, evt Envelope) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, evt Envelope) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, evt Envelope) error { return f(ctx, evt) }

// Middleware decorates a handler. Emitter middleware wraps each handler at
// registration time.
type Middleware func(next Handler) Handler

// wrap applies mw so that mw[0] sees the event first.
func wrap(h Handler, mw []Middleware) Handler {
	for i := range mw {
		h = mw[len(mw)-1-i](h)
	}
	return h
}

type envelopeKey struct{}

// WithEnvelope returns ctx carrying evt. The emitter does this before
// calling each handler.
func WithEnvelope(ctx context.Context, evt Envelope) context.Context {
	return context.WithValue(ctx, envelopeKey{}, evt)
}

// FromContext returns the envelope of the event being handled.
func FromContext(ctx context.Context) (Envelope, bool) {
	evt, ok := ctx.Value(envelopeKey{}).(Envelope)
	return evt, ok
}
