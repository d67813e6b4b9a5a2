package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	Event string
	id    uint64
}

type listener struct {
	id      uint64
	name    string
	handler Handler
	once    bool
	fired   atomic.Bool
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithOnError sets a callback for handler failures (for logging).
func WithOnError(fn func(evt Envelope, handler string, err error)) Option {
	return func(e *Emitter) {
		e.onError = fn
	}
}

// WithMiddleware adds middleware applied to every handler registered later.
func WithMiddleware(mw ...Middleware) Option {
	return func(e *Emitter) {
		e.middleware = append(e.middleware, mw...)
	}
}

// Emitter delivers named events to handlers synchronously, in registration
// order. A failing handler never prevents later handlers from running.
type Emitter struct {
	mu         sync.RWMutex
	listeners  map[string][]*listener
	middleware []Middleware
	nextID     uint64
	onError    func(evt Envelope, handler string, err error)
}

// NewEmitter creates an emitter.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{
		listeners: make(map[string][]*listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Use adds middleware that applies to subsequently registered handlers.
func (e *Emitter) Use(mw Middleware) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.middleware = append(e.middleware, mw)
}

// On registers h for every delivery of event. name labels the handler in
// errors and logs.
func (e *Emitter) On(event, name string, h Handler) Subscription {
	return e.add(event, name, h, false)
}

// Once registers h for the next delivery of event only. The handler is
// detached before it runs.
func (e *Emitter) Once(event, name string, h Handler) Subscription {
	return e.add(event, name, h, true)
}

func (e *Emitter) add(event, name string, h Handler, once bool) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	l := &listener{
		id:      e.nextID,
		name:    name,
		handler: wrap(h, e.middleware),
		once:    once,
	}
	e.listeners[event] = append(e.listeners[event], l)
	return Subscription{Event: event, id: l.id}
}

// Off removes a handler. It reports whether the handler was still attached.
func (e *Emitter) Off(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeLocked(sub.Event, sub.id)
}

func (e *Emitter) removeLocked(event string, id uint64) bool {
	ls := e.listeners[event]
	for i, l := range ls {
		if l.id != id {
			continue
		}
		rest := make([]*listener, 0, len(ls)-1)
		rest = append(rest, ls[:i]...)
		rest = append(rest, ls[i+1:]...)
		if len(rest) == 0 {
			delete(e.listeners, event)
		} else {
			e.listeners[event] = rest
		}
		return true
	}
	return false
}

// ListenerCount returns the number of handlers attached to event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}

// Emit stamps evt and delivers it to every handler of evt.Name.
func (e *Emitter) Emit(ctx context.Context, evt transport.Event) error {
	return e.Deliver(ctx, NewEnvelope(evt))
}

// Deliver hands an already stamped envelope to every handler of its name.
// Handler failures are reported through the error callback and joined into
// the returned error as *HandlerError values.
func (e *Emitter) Deliver(ctx context.Context, evt Envelope) error {
	e.mu.RLock()
	snapshot := make([]*listener, len(e.listeners[evt.Name]))
	copy(snapshot, e.listeners[evt.Name])
	e.mu.RUnlock()

	if len(snapshot) == 0 {
		return nil
	}

	ctx = WithEnvelope(ctx, evt)

	var errs []error
	for _, l := range snapshot {
		if l.once {
			if !l.fired.CompareAndSwap(false, true) {
				continue
			}
			e.mu.Lock()
			e.removeLocked(evt.Name, l.id)
			e.mu.Unlock()
		}

		if err := l.handler.Handle(ctx, evt); err != nil {
			herr := &HandlerError{Event: evt, Handler: l.name, Err: err}
			if e.onError != nil {
				e.onError(evt, l.name, err)
			}
			errs = append(errs, herr)
		}
	}
	return errors.Join(errs...)
}

// LoggingMiddleware reports every handled event.
func LoggingMiddleware(logFn func(event string, duration time.Duration, err error)) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, evt Envelope) error {
			start := time.Now()
			err := next.Handle(ctx, evt)
			logFn(evt.Name, time.Since(start), err)
			return err
		})
	}
}

// RecoveryMiddleware turns a handler panic into a *errors.PanicError.
// A panic value any of fatal reports true for is re-raised instead.
func RecoveryMiddleware(fatal ...func(recovered any) bool) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, evt Envelope) (err error) {
			defer func() {
				if r := recover(); r != nil {
					for _, isFatal := range fatal {
						if isFatal(r) {
							panic(r)
						}
					}
					err = pwerrors.Recover(evt.Name, r)
				}
			}()
			return next.Handle(ctx, evt)
		})
	}
}
