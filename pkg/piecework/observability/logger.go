// Package observability provides structured logging, metrics and tracing
// for a piecework host.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// EnrichLogger adds piece context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "commands", "ping")
//	enriched.Info("running") // includes pool and piece
func EnrichLogger(logger *slog.Logger, pool, piece string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("pool", pool),
		slog.String("piece", piece),
	)
}

// LogPieceLoaded logs a single piece registration.
func LogPieceLoaded(logger *slog.Logger, pool, piece string, replaced bool) {
	if logger == nil {
		return
	}
	if replaced {
		logger.Warn("piece replaced",
			slog.String("pool", pool),
			slog.String("piece", piece),
		)
		return
	}
	logger.Debug("piece loaded",
		slog.String("pool", pool),
		slog.String("piece", piece),
	)
}

// LogPoolLoaded logs completion of a pool's init.
func LogPoolLoaded(logger *slog.Logger, pool string, count int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("pool loaded",
		slog.String("pool", pool),
		slog.Int("pieces", count),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDispatch logs the outcome of a message dispatch.
func LogDispatch(logger *slog.Logger, outcome, command string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("message dispatched",
		slog.String("outcome", outcome),
		slog.String("command", command),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPieceError logs a piece failure. Failures never stop the event loop.
func LogPieceError(logger *slog.Logger, piece string, err error) {
	if logger == nil {
		return
	}
	logger.Error("piece failed",
		slog.String("piece", piece),
		slog.String("error", err.Error()),
	)
}

// LogFault logs an uncaught runtime fault surfaced at the host boundary.
func LogFault(logger *slog.Logger, event string, err error) {
	if logger == nil {
		return
	}
	logger.Error("[Error]",
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}

// LogReady logs that the host identity is known and routing has begun.
func LogReady(logger *slog.Logger, message string, owners, prefixes int) {
	if logger == nil {
		return
	}
	logger.Info(message,
		slog.Int("owners", owners),
		slog.Int("prefixes", prefixes),
	)
}

// LogSweep logs the result of a cache sweep.
func LogSweep(logger *slog.Logger, stats transport.SweepStats, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("sweep completed",
		slog.Int("presences", stats.Presences),
		slog.Int("members", stats.Members),
		slog.Int("voice_states", stats.VoiceStates),
		slog.Int("users", stats.Users),
		slog.Int("emojis", stats.Emojis),
		slog.Int("last_messages", stats.LastMessages),
		slog.Int("total", stats.Total()),
		slog.Float64("duration_ms", durationMs),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
