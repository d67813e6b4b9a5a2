// Package fault keeps an operator-facing journal of uncaught runtime faults.
//
// The host records a Fault whenever an event handler or piece fails at the
// host boundary and displayErrors is set. Two stores are provided:
//   - MemoryStore: a bounded ring, the default
//   - SQLiteStore: a durable journal for post-mortem inspection
package fault

import (
	"errors"
	"time"

	"github.com/google/uuid"

	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
)

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("fault store closed")
)

// Fault is one recorded failure.
type Fault struct {
	ID         string
	Event      string // event name or event envelope ID
	Piece      string // failing piece or handler, if known
	Message    string
	Stack      string
	OccurredAt time.Time
}

// New builds a Fault for err. Panics captured as *errors.PanicError keep
// their stack.
func New(event, pieceName string, err error) Fault {
	f := Fault{
		ID:         uuid.New().String(),
		Event:      event,
		Piece:      pieceName,
		OccurredAt: time.Now().UTC(),
	}
	if err != nil {
		f.Message = err.Error()
	}
	var pe *pwerrors.PanicError
	if errors.As(err, &pe) {
		f.Stack = pe.Stack
		if f.Piece == "" {
			f.Piece = pe.Source
		}
	}
	return f
}

// Store persists faults. Implementations are safe for concurrent use.
type Store interface {
	// Record appends a fault.
	Record(f Fault) error

	// List returns up to limit faults, newest first. limit <= 0 means all.
	List(limit int) ([]Fault, error)

	// Count returns the number of stored faults.
	Count() (int, error)

	// Close releases resources. Close is idempotent.
	Close() error
}
