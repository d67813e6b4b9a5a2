// Package event provides the synchronous, ordered event emitter a piecework
// host wires its event-handler pieces to.
//
// Handlers run one after another in registration order on the emitting
// goroutine. Once handlers are detached before they run, so a handler that
// re-emits its own event does not fire twice.
//
//	em := event.NewEmitter(event.WithMiddleware(event.RecoveryMiddleware()))
//	em.Once("ready", "announce", event.HandlerFunc(func(ctx context.Context, evt event.Envelope) error {
//		return nil
//	}))
//	err := em.Emit(ctx, transport.Event{Name: "ready"})
package event
