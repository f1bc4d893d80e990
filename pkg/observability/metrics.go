package observability

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arbor"

// Metrics holds the collectors fed by the pipeline hooks.
type Metrics struct {
	Passes      *prometheus.CounterVec
	Mutations   prometheus.Counter
	HostCalls   *prometheus.CounterVec
	CallLatency prometheus.Histogram
	PayloadSize prometheus.Histogram
	StaleDrops  prometheus.Counter
	Boundaries  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg falls back to prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Reconciliation passes committed, by result.",
		}, []string{"result"}),
		Mutations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutations produced by the diff engine.",
		}),
		HostCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_calls_total",
			Help:      "Host update calls, by result.",
		}, []string{"result"}),
		CallLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "host_call_duration_seconds",
			Help:      "Duration of host update calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		PayloadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "host_call_payload_bytes",
			Help:      "Encoded payload size of host update calls.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		StaleDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_patches_total",
			Help:      "Patches dropped because their boundary was unmounted in the same pass.",
		}),
		Boundaries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boundaries",
			Help:      "Live boundaries, excluding the page.",
		}),
	}
	reg.MustRegister(m.Passes, m.Mutations, m.HostCalls, m.CallLatency, m.PayloadSize, m.StaleDrops, m.Boundaries)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPassEnd: func(_ context.Context, e *domain.PassEvent) {
			m.Passes.WithLabelValues(result(e.Err)).Inc()
			m.Mutations.Add(float64(e.Mutations))
		},
		OnHostCall: func(_ context.Context, e *domain.HostCallEvent) {
			m.HostCalls.WithLabelValues(result(e.Err)).Inc()
			m.CallLatency.Observe(e.Duration.Seconds())
			m.PayloadSize.Observe(float64(e.PayloadSize))
		},
		OnStaleDrop: func(_ context.Context, e *domain.StaleEvent) {
			m.StaleDrops.Add(float64(e.Patches))
		},
		OnBoundaryCreated: func(_ context.Context, e *domain.BoundaryEvent) {
			if e.Boundary.ID != domain.PageBoundary {
				m.Boundaries.Inc()
			}
		},
		OnBoundaryDestroyed: func(_ context.Context, e *domain.BoundaryEvent) {
			if e.Boundary.ID != domain.PageBoundary {
				m.Boundaries.Dec()
			}
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
