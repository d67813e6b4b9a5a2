package observability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricDispatches         = "piecework.dispatch.messages"
	MetricDispatchLatency    = "piecework.dispatch.latency_ms"
	MetricCommandRuns        = "piecework.command.runs"
	MetricCommandLatency     = "piecework.command.latency_ms"
	MetricCommandErrors      = "piecework.command.errors"
	MetricCooldownRejections = "piecework.cooldown.rejections"
	MetricMonitorErrors      = "piecework.monitor.errors"
	MetricTaskRuns           = "piecework.task.runs"
	MetricTaskErrors         = "piecework.task.errors"
)

// MetricsRecorder receives measurements from the dispatch pipeline and the
// task scheduler. Use NewMetricsRecorder for OpenTelemetry or NoopMetrics{}
// to disable.
type MetricsRecorder interface {
	// RecordDispatch counts one message by its dispatch outcome.
	RecordDispatch(ctx context.Context, outcome string, duration time.Duration)
	RecordCommandRun(ctx context.Context, command string, duration time.Duration, err error)
	RecordCooldownRejection(ctx context.Context, command string)
	RecordMonitorError(ctx context.Context, monitor string)
	RecordTaskRun(ctx context.Context, task string, duration time.Duration, err error)
}

// MetricsOption configures NewMetricsRecorder.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	provider metric.MeterProvider
}

// WithMeterProvider uses mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) MetricsOption {
	return func(c *metricsConfig) { c.provider = mp }
}

type otelMetrics struct {
	dispatches         metric.Int64Counter
	dispatchLatency    metric.Float64Histogram
	commandRuns        metric.Int64Counter
	commandLatency     metric.Float64Histogram
	commandErrors      metric.Int64Counter
	cooldownRejections metric.Int64Counter
	monitorErrors      metric.Int64Counter
	taskRuns           metric.Int64Counter
	taskErrors         metric.Int64Counter
}

// NewMetricsRecorder returns an OpenTelemetry MetricsRecorder. Without
// WithMeterProvider it uses the global provider. If an instrument cannot be
// created it logs a warning and returns NoopMetrics{}.
func NewMetricsRecorder(opts ...MetricsOption) MetricsRecorder {
	cfg := metricsConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetMeterProvider()
	}
	m, err := newOtelMetrics(cfg.provider.Meter("piecework"))
	if err != nil {
		slog.Warn("metrics disabled", slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	latency := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("ms"))
		errs = append(errs, err)
		return h
	}

	m := &otelMetrics{
		dispatches:         counter(MetricDispatches, "Inbound messages by dispatch outcome"),
		dispatchLatency:    latency(MetricDispatchLatency, "Time to dispatch one message"),
		commandRuns:        counter(MetricCommandRuns, "Command invocations"),
		commandLatency:     latency(MetricCommandLatency, "Command run time"),
		commandErrors:      counter(MetricCommandErrors, "Command invocations that failed"),
		cooldownRejections: counter(MetricCooldownRejections, "Invocations refused by an active cooldown"),
		monitorErrors:      counter(MetricMonitorErrors, "Monitor failures"),
		taskRuns:           counter(MetricTaskRuns, "Scheduled and manual task runs"),
		taskErrors:         counter(MetricTaskErrors, "Task runs that failed"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (m *otelMetrics) RecordDispatch(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchLatency.Record(ctx, millis(duration), attrs)
}

func (m *otelMetrics) RecordCommandRun(ctx context.Context, command string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("command", command))
	m.commandRuns.Add(ctx, 1, attrs)
	m.commandLatency.Record(ctx, millis(duration), attrs)
	if err != nil {
		m.commandErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordCooldownRejection(ctx context.Context, command string) {
	m.cooldownRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("command", command)))
}

func (m *otelMetrics) RecordMonitorError(ctx context.Context, monitor string) {
	m.monitorErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("monitor", monitor)))
}

// Task durations are not histogrammed; schedules run far apart.
func (m *otelMetrics) RecordTaskRun(ctx context.Context, task string, _ time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("task", task))
	m.taskRuns.Add(ctx, 1, attrs)
	if err != nil {
		m.taskErrors.Add(ctx, 1, attrs)
	}
}
