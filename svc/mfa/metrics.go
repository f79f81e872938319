package mfa

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for the service. A nil *Metrics is a no-op.
type Metrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	swept      prometheus.Counter
}

// NewMetrics creates collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfa",
			Name:      "operations_total",
			Help:      "MFA operations by operation and result kind.",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mfa",
			Name:      "operation_duration_seconds",
			Help:      "MFA operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mfa",
			Name:      "challenges_swept_total",
			Help:      "Expired setup challenges removed by the sweeper.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.latency, m.swept)
	}
	return m
}

func (m *Metrics) observe(op Operation, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = Kind(err)
	}
	m.operations.WithLabelValues(string(op), result).Inc()
	m.latency.WithLabelValues(string(op)).Observe(d.Seconds())
}

func (m *Metrics) challengesSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}
