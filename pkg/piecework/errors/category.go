// Package errors provides retry classification, backoff for transport calls
// and the panic capture type shared by the dispatch pipeline and the host
// runtime.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Category says whether repeating a failed call can help.
type Category uint8

const (
	// CategoryPermanent failures repeat on every attempt: bad credentials,
	// missing permissions, malformed requests, anything unrecognised.
	CategoryPermanent Category = iota

	// CategoryTransient failures may clear on their own: timeouts, dropped
	// connections, rate limits.
	CategoryTransient
)

func (c Category) String() string {
	switch c {
	case CategoryPermanent:
		return "permanent"
	case CategoryTransient:
		return "transient"
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// CategorizedError is the error returned once a retried call gives up.
type CategorizedError struct {
	// Op names the call, e.g. "fetch application".
	Op       string
	Err      error
	Category Category
	// Attempts counts the calls made before giving up.
	Attempts int
}

func (e *CategorizedError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	fmt.Fprintf(&b, " (%s, %d attempt", e.Category, e.Attempts)
	if e.Attempts != 1 {
		b.WriteByte('s')
	}
	b.WriteByte(')')
	return b.String()
}

func (e *CategorizedError) Unwrap() error { return e.Err }

// marked pins a category onto an error without otherwise changing it.
type marked struct {
	error
	category Category
	after    time.Duration
}

func (m *marked) Unwrap() error { return m.error }

// RetryAfter reports the delay requested by a rate-limited call.
func (m *marked) RetryAfter() time.Duration { return m.after }

// Transient marks err as worth retrying.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &marked{error: err, category: CategoryTransient}
}

// Permanent marks err as not worth retrying, overriding any transient cause.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &marked{error: err, category: CategoryPermanent}
}

// RateLimited marks err as transient and asks the next attempt to wait at
// least after.
func RateLimited(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &marked{error: err, category: CategoryTransient, after: after}
}

// Categorize classifies err. The outermost explicit mark wins; otherwise
// deadlines and network timeouts are transient and everything else,
// cancellation included, is permanent.
func Categorize(err error) Category {
	var m *marked
	var ce *CategorizedError
	var netErr net.Error
	switch {
	case err == nil:
		return CategoryPermanent
	case errors.As(err, &m):
		return m.category
	case errors.As(err, &ce):
		return ce.Category
	case errors.Is(err, context.Canceled):
		return CategoryPermanent
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryTransient
	case errors.As(err, &netErr) && netErr.Timeout():
		return CategoryTransient
	default:
		return CategoryPermanent
	}
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// retryAfter extracts a rate-limit hint from err, if any.
func retryAfter(err error) time.Duration {
	var hint interface{ RetryAfter() time.Duration }
	if errors.As(err, &hint) {
		return hint.RetryAfter()
	}
	return 0
}
