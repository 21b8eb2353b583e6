package authcore

import (
	"sync/atomic"
	"testing"
	"time"
)

// verifyPathMetrics are the counters a busy guard touches.
var verifyPathMetrics = [...]MetricID{
	MetricTokenMissing,
	MetricTokenInvalid,
	MetricTokenRevoked,
	MetricTokenIntentMismatch,
	MetricRefreshSuccess,
	MetricLogout,
	MetricAuthorizationDenied,
	MetricLoginSuccess,
}

// unpaddedMetrics is the layout the padded counters are measured against.
type unpaddedMetrics struct {
	counters [metricIDCount]uint64
}

func (m *unpaddedMetrics) Inc(id MetricID) {
	atomic.AddUint64(&m.counters[id], 1)
}

func BenchmarkMetricsInc(b *testing.B) {
	for _, enabled := range []bool{true, false} {
		name := "enabled"
		if !enabled {
			name = "disabled"
		}
		b.Run(name, func(b *testing.B) {
			m := NewMetrics(MetricsConfig{Enabled: enabled})
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					m.Inc(MetricLoginSuccess)
				}
			})
		})
	}
}

func BenchmarkMetricsObserveVerifyLatency(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	d := 3 * time.Millisecond
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricVerifyLatency, d)
		}
	})
}

func BenchmarkMetricsMixedPadded(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Inc(verifyPathMetrics[i%len(verifyPathMetrics)])
			i++
		}
	})
}

func BenchmarkMetricsMixedUnpadded(b *testing.B) {
	m := &unpaddedMetrics{}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Inc(verifyPathMetrics[i%len(verifyPathMetrics)])
			i++
		}
	})
}
