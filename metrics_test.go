package authcore

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricIssueSuccess)

	assert.Zero(t, m.Value(MetricIssueSuccess))
	snap := m.Snapshot()
	assert.Empty(t, snap.Counters)
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricValidateSuccess)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(workers*perWorker), m.Value(MetricValidateSuccess))
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricValidateLatency, 3*time.Millisecond)
	m.Observe(MetricValidateLatency, 40*time.Millisecond)
	m.Observe(MetricValidateLatency, 2*time.Second)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricValidateLatency]
	assert.Len(t, buckets, histBucketCount)
	assert.Equal(t, uint64(1), buckets[0])
	assert.Equal(t, uint64(1), buckets[3])
	assert.Equal(t, uint64(1), buckets[histBucketCount-1])

	// Counter-only snapshots skip histograms.
	plain := NewMetrics(MetricsConfig{Enabled: true})
	plain.Observe(MetricValidateLatency, time.Millisecond)
	assert.Empty(t, plain.Snapshot().Histograms)
}

func TestMetricsIgnoresOutOfRangeID(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricID(10_000))
	assert.Zero(t, m.Value(MetricID(10_000)))
}
