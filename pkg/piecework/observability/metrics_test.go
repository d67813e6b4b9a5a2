package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (MetricsRecorder, func() metricdata.ResourceMetrics) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	collect := func() metricdata.ResourceMetrics {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		return rm
	}
	return NewMetricsRecorder(WithMeterProvider(mp)), collect
}

func find(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// count sums the int64 data points of name whose key attribute equals value.
func count(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	m, ok := find(rm, name)
	require.True(t, ok, "metric %s not recorded", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s: got %T", name, m.Data)

	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder_IsReal(t *testing.T) {
	m, _ := newTestMetrics(t)
	_, isNoop := m.(NoopMetrics)
	assert.False(t, isNoop)
}

func TestMetrics_Dispatch(t *testing.T) {
	m, collect := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDispatch(ctx, "invoked", 2*time.Millisecond)
	m.RecordDispatch(ctx, "invoked", time.Millisecond)
	m.RecordDispatch(ctx, "not_command", 0)

	rm := collect()
	assert.Equal(t, int64(2), count(t, rm, MetricDispatches, "outcome", "invoked"))
	assert.Equal(t, int64(1), count(t, rm, MetricDispatches, "outcome", "not_command"))

	latency, ok := find(rm, MetricDispatchLatency)
	require.True(t, ok)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var n uint64
	for _, dp := range hist.DataPoints {
		n += dp.Count
	}
	assert.Equal(t, uint64(3), n)
}

func TestMetrics_CommandRun(t *testing.T) {
	m, collect := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCommandRun(ctx, "ping", time.Millisecond, nil)
	m.RecordCommandRun(ctx, "ping", time.Millisecond, errors.New("database down"))
	m.RecordCommandRun(ctx, "help", time.Millisecond, nil)

	rm := collect()
	assert.Equal(t, int64(2), count(t, rm, MetricCommandRuns, "command", "ping"))
	assert.Equal(t, int64(1), count(t, rm, MetricCommandRuns, "command", "help"))
	assert.Equal(t, int64(1), count(t, rm, MetricCommandErrors, "command", "ping"))
	_, ok := find(rm, MetricCommandLatency)
	assert.True(t, ok)
}

func TestMetrics_RejectionsMonitorsTasks(t *testing.T) {
	m, collect := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCooldownRejection(ctx, "ping")
	m.RecordMonitorError(ctx, "audit")
	m.RecordMonitorError(ctx, "audit")
	m.RecordTaskRun(ctx, "sweep", time.Second, nil)
	m.RecordTaskRun(ctx, "sweep", time.Second, errors.New("locked"))

	rm := collect()
	assert.Equal(t, int64(1), count(t, rm, MetricCooldownRejections, "command", "ping"))
	assert.Equal(t, int64(2), count(t, rm, MetricMonitorErrors, "monitor", "audit"))
	assert.Equal(t, int64(2), count(t, rm, MetricTaskRuns, "task", "sweep"))
	assert.Equal(t, int64(1), count(t, rm, MetricTaskErrors, "task", "sweep"))
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordDispatch(ctx, "invoked", time.Second)
		m.RecordCommandRun(ctx, "ping", time.Second, errors.New("x"))
		m.RecordCooldownRejection(ctx, "ping")
		m.RecordMonitorError(ctx, "audit")
		m.RecordTaskRun(ctx, "sweep", time.Second, nil)
	})
}
