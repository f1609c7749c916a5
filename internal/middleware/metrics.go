package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for operation resolutions.
type Metrics struct {
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	middleware  *Middleware
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of operation resolutions",
			},
			[]string{"operation", "kind", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Operation resolution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.resolutions, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	m.middleware = New("metrics", m.observe)
	return m, nil
}

// Middleware returns the interceptor feeding these collectors. The same
// pointer is returned on every call.
func (m *Metrics) Middleware() *Middleware { return m.middleware }

func (m *Metrics) observe(ctx context.Context, next Next, opts *Options) (any, error) {
	start := time.Now()
	value, err := next(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.resolutions.WithLabelValues(opts.Path(), opts.Kind, status).Inc()
	m.duration.WithLabelValues(opts.Path(), opts.Kind).Observe(time.Since(start).Seconds())
	return value, err
}
