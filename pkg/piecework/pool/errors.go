package pool

import (
	"errors"
	"fmt"
)

// Sentinel errors for pool operations.
var (
	// ErrKindMismatch indicates a constructor built a piece of the wrong kind
	// for the pool it was registered into.
	ErrKindMismatch = errors.New("piece kind does not match pool")

	// ErrNilPiece indicates a constructor returned neither a piece nor an error.
	ErrNilPiece = errors.New("constructor returned nil piece")
)

// LoadError reports a piece that failed to construct or initialize.
type LoadError struct {
	Pool   string
	Piece  string
	Origin string
	Phase  string // "construct" or "init"
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	name := e.Piece
	if name == "" {
		name = e.Origin
	}
	if name == "" {
		return fmt.Sprintf("pool %s: %s: %v", e.Pool, e.Phase, e.Err)
	}
	return fmt.Sprintf("pool %s: %s %q: %v", e.Pool, e.Phase, name, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
