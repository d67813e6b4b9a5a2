package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError captures a panic raised while running a piece or handler.
type PanicError struct {
	// Source names what was running (a piece name or handler name).
	Source string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of recovery.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Source, e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Recover converts a recovered value into a *PanicError. It must be called
// with the result of recover() from a deferred function.
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        err = errors.Recover("ping", r)
//	    }
//	}()
func Recover(source string, recovered any) *PanicError {
	return &PanicError{
		Source: source,
		Value:  recovered,
		Stack:  string(debug.Stack()),
	}
}
