package piecework

import "errors"

// Sentinel errors for the host runtime.
var (
	// ErrNoTransport indicates New was called without WithTransport.
	ErrNoTransport = errors.New("transport is required")

	// ErrAlreadyStarted indicates Start was called more than once.
	ErrAlreadyStarted = errors.New("client already started")

	// ErrNotStarted indicates Run was called before Start.
	ErrNotStarted = errors.New("client not started")

	// ErrClosed indicates the client was used after Close.
	ErrClosed = errors.New("client closed")

	// ErrUnknownTask indicates RunTask named a task that is not loaded.
	ErrUnknownTask = errors.New("unknown task")

	// ErrUnexpectedPayload indicates a core event arrived with a payload of
	// the wrong type.
	ErrUnexpectedPayload = errors.New("unexpected event payload")
)
