package lark

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records Lark call outcomes
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lark_requests_total",
				Help: "Lark Open API calls by method, address template and result code",
			},
			[]string{"method", "address", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lark_request_duration_seconds",
				Help:    "Duration of Lark Open API calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "address"},
		),
	}
}

// observe labels by the address template so placeholders keep cardinality bounded
func (m *Metrics) observe(method, address string, code uint64, elapsed time.Duration) {
	m.requests.WithLabelValues(method, address, strconv.FormatUint(code, 10)).Inc()
	m.duration.WithLabelValues(method, address).Observe(elapsed.Seconds())
}
