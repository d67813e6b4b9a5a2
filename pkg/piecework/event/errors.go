package event

import "fmt"

// HandlerError is what Emit returns when a handler fails. It names the
// handler and the envelope being delivered.
type HandlerError struct {
	Event   Envelope
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("event %s: handler %s: %v", e.Event, e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
