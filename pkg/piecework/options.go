package piecework

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/piecework/pkg/piecework/config"
	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
	"github.com/randalmurphal/piecework/pkg/piecework/fault"
	"github.com/randalmurphal/piecework/pkg/piecework/observability"
	"github.com/randalmurphal/piecework/pkg/piecework/pool"
	"github.com/randalmurphal/piecework/pkg/piecework/source"
	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// clientConfig holds everything New needs before it builds the pools.
type clientConfig struct {
	options   config.Options
	transport transport.Transport
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	faults    fault.Store
	factories *source.Factories
	retry     pwerrors.RetryConfig
	now       func() time.Time

	readyMessage func(*Client) string

	commands pool.Source
	events   pool.Source
	monitors pool.Source
	tasks    pool.Source
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		options: config.DefaultOptions(),
		retry:   pwerrors.DefaultRetry,
	}
}

// Option configures a Client.
type Option func(*clientConfig)

// WithOptions replaces the runtime options.
// Default: config.DefaultOptions()
func WithOptions(opts config.Options) Option {
	return func(c *clientConfig) {
		c.options = opts
	}
}

// WithTransport sets the connection layer. It is required.
func WithTransport(t transport.Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: an OpenTelemetry recorder on the global meter provider.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *clientConfig) {
		c.metrics = m
	}
}

// WithSpans sets the span manager.
// Default: an OpenTelemetry span manager on the global tracer provider.
func WithSpans(s observability.SpanManager) Option {
	return func(c *clientConfig) {
		c.spans = s
	}
}

// WithFaultStore sets the fault journal. The client closes it on Close.
// Default: fault.Open(options.FaultStore)
func WithFaultStore(store fault.Store) Option {
	return func(c *clientConfig) {
		c.faults = store
	}
}

// WithFactories sets the factories used to build pieces from the
// definition files under options.PiecesDir.
func WithFactories(f *source.Factories) Option {
	return func(c *clientConfig) {
		c.factories = f
	}
}

// WithRetry sets the retry policy for fetching application ownership at
// ready time. Default: errors.DefaultRetry
func WithRetry(cfg pwerrors.RetryConfig) Option {
	return func(c *clientConfig) {
		c.retry = cfg
	}
}

// WithClock overrides the clock used for cooldown arithmetic.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.now = now
	}
}

// WithReadyMessage sets the message logged once the host is ready.
//
// Example:
//
//	piecework.WithReadyMessage(func(c *piecework.Client) string {
//	    return fmt.Sprintf("serving %d commands", c.Commands().Len())
//	})
func WithReadyMessage(fn func(*Client) string) Option {
	return func(c *clientConfig) {
		c.readyMessage = fn
	}
}

// WithCommandSource adds a source of commands. User sources are discovered
// after the built-in pieces and the PiecesDir definitions.
func WithCommandSource(src pool.Source) Option {
	return func(c *clientConfig) {
		c.commands = src
	}
}

// WithEventSource adds a source of event handlers.
func WithEventSource(src pool.Source) Option {
	return func(c *clientConfig) {
		c.events = src
	}
}

// WithMonitorSource adds a source of monitors.
func WithMonitorSource(src pool.Source) Option {
	return func(c *clientConfig) {
		c.monitors = src
	}
}

// WithTaskSource adds a source of tasks.
func WithTaskSource(src pool.Source) Option {
	return func(c *clientConfig) {
		c.tasks = src
	}
}
