package errors

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig bounds how hard a transport call is retried.
type RetryConfig struct {
	// MaxAttempts includes the first call. Values below 1 mean 1.
	MaxAttempts int

	// InitialBackoff is the wait after the first failure; each later wait
	// grows by BackoffFactor up to MaxBackoff (0 means uncapped).
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64

	// Jitter spreads each wait by up to ±Jitter of its length.
	Jitter float64

	// RetryableFunc replaces IsRetryable when set.
	RetryableFunc func(error) bool
}

// DefaultRetry suits gateway REST calls: three tries over a few seconds.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2,
	Jitter:         0.1,
}

// NoRetry makes a single attempt.
var NoRetry = RetryConfig{MaxAttempts: 1}

// delay returns the wait before attempt n+1, where n >= 1 calls have failed.
func (c RetryConfig) delay(n int) time.Duration {
	factor := c.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	d := float64(c.InitialBackoff) * math.Pow(factor, float64(n-1))
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if c.Jitter > 0 {
		d += d * c.Jitter * (2*rand.Float64() - 1)
	}
	return time.Duration(d)
}

// RetryResult is the outcome of WithRetryContext.
type RetryResult[T any] struct {
	Value    T
	Err      error
	Attempts int
	Duration time.Duration
}

// WithRetryContext calls fn until it succeeds, returns a non-retryable
// error, exhausts cfg.MaxAttempts or ctx ends. A failed result carries a
// *CategorizedError. A rate-limit hint on the error stretches the next wait.
func WithRetryContext[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) RetryResult[T] {
	start := time.Now()
	retryable := cfg.RetryableFunc
	if retryable == nil {
		retryable = IsRetryable
	}
	limit := max(cfg.MaxAttempts, 1)

	fail := func(err error, cat Category, attempts int, op string) RetryResult[T] {
		return RetryResult[T]{
			Err:      &CategorizedError{Op: op, Err: err, Category: cat, Attempts: attempts},
			Attempts: attempts,
			Duration: time.Since(start),
		}
	}

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return fail(err, CategoryPermanent, n-1, "")
		}

		v, err := fn(ctx)
		if err == nil {
			return RetryResult[T]{Value: v, Attempts: n, Duration: time.Since(start)}
		}
		if !retryable(err) {
			return fail(err, Categorize(err), n, "")
		}
		if n == limit {
			return fail(err, CategoryTransient, n, "gave up")
		}

		wait := max(cfg.delay(n), retryAfter(err))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fail(ctx.Err(), CategoryPermanent, n, "")
		case <-timer.C:
		}
	}
}
