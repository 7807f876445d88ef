package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	authcore "github.com/authcore-io/authcore"
)

type fakeSource struct {
	snapshot authcore.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authcore.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func TestExporterObservesCounters(t *testing.T) {
	source := fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{
				authcore.MetricIssueSuccess: 11,
			},
			Histograms: map[authcore.MetricID][]uint64{},
		},
		dropped: 4,
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("authcore-test")

	exporter, err := NewExporter(meter, source)
	require.NoError(t, err)
	defer exporter.Close()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	values := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) == 1 {
			values[m.Name] = sum.DataPoints[0].Value
		}
		if gauge, ok := m.Data.(metricdata.Gauge[int64]); ok && len(gauge.DataPoints) == 1 {
			values[m.Name] = gauge.DataPoints[0].Value
		}
	}

	assert.Equal(t, int64(11), values["authcore_issue_success_total"])
	assert.Equal(t, int64(4), values["authcore_audit_dropped_total"])
	assert.Equal(t, int64(0), values["authcore_replay_detected_total"])
	assert.Contains(t, values, "authcore_validate_latency_seconds_count")
}

func TestExporterNilArguments(t *testing.T) {
	_, err := NewExporter(nil, fakeSource{})
	assert.ErrorIs(t, err, ErrNilMeter)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	_, err = NewExporter(provider.Meter("x"), nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

func TestExporterCloseUnregisters(t *testing.T) {
	source := fakeSource{snapshot: authcore.MetricsSnapshot{
		Counters:   map[authcore.MetricID]uint64{},
		Histograms: map[authcore.MetricID][]uint64{},
	}}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	exporter, err := NewExporter(provider.Meter("x"), source)
	require.NoError(t, err)
	require.NoError(t, exporter.Close())
	require.NoError(t, exporter.Close(), "second close is a no-op")
}
