package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

func recorder(calls *[]string, name string) Handler {
	return HandlerFunc(func(context.Context, Envelope) error {
		*calls = append(*calls, name)
		return nil
	})
}

func TestNewEnvelope(t *testing.T) {
	a := NewEnvelope(transport.Event{Name: "message", Payload: 1})
	b := NewEnvelope(transport.Event{Name: "message"})

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "message", a.Name)
	assert.Equal(t, 1, a.Payload)
	assert.False(t, a.ReceivedAt.IsZero())
}

func TestEmitter_OrderedDelivery(t *testing.T) {
	em := NewEmitter()
	var calls []string
	em.On("ready", "a", recorder(&calls, "a"))
	em.On("ready", "b", recorder(&calls, "b"))
	em.On("message", "c", recorder(&calls, "c"))

	require.NoError(t, em.Emit(context.Background(), transport.Event{Name: "ready"}))
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestEmitter_NoHandlers(t *testing.T) {
	em := NewEmitter()
	assert.NoError(t, em.Emit(context.Background(), transport.Event{Name: "nobody"}))
}

func TestEmitter_Once(t *testing.T) {
	em := NewEmitter()
	var calls []string
	em.Once("ready", "once", recorder(&calls, "once"))
	em.On("ready", "always", recorder(&calls, "always"))

	ctx := context.Background()
	require.NoError(t, em.Emit(ctx, transport.Event{Name: "ready"}))
	require.NoError(t, em.Emit(ctx, transport.Event{Name: "ready"}))

	assert.Equal(t, []string{"once", "always", "always"}, calls)
	assert.Equal(t, 1, em.ListenerCount("ready"))
}

func TestEmitter_OnceReentrant(t *testing.T) {
	em := NewEmitter()
	calls := 0
	em.Once("ready", "reemit", HandlerFunc(func(ctx context.Context, evt Envelope) error {
		calls++
		return em.Emit(ctx, transport.Event{Name: "ready"})
	}))

	require.NoError(t, em.Emit(context.Background(), transport.Event{Name: "ready"}))
	assert.Equal(t, 1, calls)
}

func TestEmitter_Off(t *testing.T) {
	em := NewEmitter()
	var calls []string
	sub := em.On("ready", "a", recorder(&calls, "a"))
	em.On("ready", "b", recorder(&calls, "b"))

	assert.True(t, em.Off(sub))
	assert.False(t, em.Off(sub))

	require.NoError(t, em.Emit(context.Background(), transport.Event{Name: "ready"}))
	assert.Equal(t, []string{"b"}, calls)
}

func TestEmitter_FailureDoesNotStopOthers(t *testing.T) {
	boom := errors.New("boom")
	var reported []string
	em := NewEmitter(WithOnError(func(_ Envelope, handler string, _ error) {
		reported = append(reported, handler)
	}))

	var calls []string
	em.On("message", "bad", HandlerFunc(func(context.Context, Envelope) error { return boom }))
	em.On("message", "good", recorder(&calls, "good"))

	err := em.Emit(context.Background(), transport.Event{Name: "message"})
	require.ErrorIs(t, err, boom)

	var herr *HandlerError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "bad", herr.Handler)
	assert.Equal(t, "message", herr.Event.Name)
	assert.Contains(t, herr.Error(), "handler bad")

	assert.Equal(t, []string{"good"}, calls)
	assert.Equal(t, []string{"bad"}, reported)
}

func TestEmitter_RecoveryMiddleware(t *testing.T) {
	em := NewEmitter(WithMiddleware(RecoveryMiddleware()))
	var calls []string
	em.On("message", "panicky", HandlerFunc(func(context.Context, Envelope) error { panic("nil map") }))
	em.On("message", "after", recorder(&calls, "after"))

	err := em.Emit(context.Background(), transport.Event{Name: "message"})
	require.Error(t, err)

	var pe *pwerrors.PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "nil map", pe.Value)
	assert.Equal(t, []string{"after"}, calls)
}

func TestRecoveryMiddleware_Fatal(t *testing.T) {
	isFatal := func(r any) bool { return r == "fatal" }
	em := NewEmitter(WithMiddleware(RecoveryMiddleware(isFatal)))
	em.On("message", "panicky", HandlerFunc(func(context.Context, Envelope) error { panic("fatal") }))

	assert.PanicsWithValue(t, "fatal", func() {
		_ = em.Emit(context.Background(), transport.Event{Name: "message"})
	})
}

func TestEmitter_UseAppliesToLaterHandlers(t *testing.T) {
	em := NewEmitter()
	var order []string
	tag := func(label string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, evt Envelope) error {
				order = append(order, label)
				return next.Handle(ctx, evt)
			})
		}
	}

	em.On("x", "before", recorder(&order, "before"))
	em.Use(tag("outer"))
	em.Use(tag("inner"))
	em.On("x", "after", recorder(&order, "after"))

	require.NoError(t, em.Emit(context.Background(), transport.Event{Name: "x"}))
	assert.Equal(t, []string{"before", "outer", "inner", "after"}, order)
}

func TestLoggingMiddleware(t *testing.T) {
	var gotEvent string
	var gotErr error
	mw := LoggingMiddleware(func(event string, _ time.Duration, err error) {
		gotEvent = event
		gotErr = err
	})

	boom := errors.New("boom")
	h := mw(HandlerFunc(func(context.Context, Envelope) error { return boom }))
	err := h.Handle(context.Background(), Envelope{Name: "ready"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "ready", gotEvent)
	assert.ErrorIs(t, gotErr, boom)
}

func TestFromContext(t *testing.T) {
	em := NewEmitter()
	var seen Envelope
	em.On("ready", "ctx", HandlerFunc(func(ctx context.Context, _ Envelope) error {
		var ok bool
		seen, ok = FromContext(ctx)
		require.True(t, ok)
		return nil
	}))

	env := NewEnvelope(transport.Event{Name: "ready"})
	require.NoError(t, em.Deliver(context.Background(), env))
	assert.Equal(t, env.ID, seen.ID)

	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestHandlerError(t *testing.T) {
	cause := errors.New("boom")
	err := &HandlerError{Event: Envelope{ID: "e1", Name: "ready"}, Handler: "announce", Err: cause}

	assert.Equal(t, "event ready/e1: handler announce: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}
