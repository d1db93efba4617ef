package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CompositionSubmitTotal counts sale and order submissions by outcome.
	CompositionSubmitTotal *prometheus.CounterVec
	// DraftMutationsTotal counts editing operations applied to drafts.
	DraftMutationsTotal *prometheus.CounterVec
	// BackendRequestsTotal counts calls to the remote backend by outcome.
	BackendRequestsTotal *prometheus.CounterVec
	// BackendRequestLatency records backend call latency in milliseconds.
	BackendRequestLatency *prometheus.HistogramVec
	// EventsPublishedTotal counts domain events handed to the broker.
	EventsPublishedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics creates the domain collectors once and registers
// them on reg, or the default registerer when reg is nil.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CompositionSubmitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "composition_submit_total",
			Help:      "Count of sale and order submissions by outcome.",
		}, []string{"kind", "result"})
		DraftMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_mutations_total",
			Help:      "Count of draft editing operations.",
		}, []string{"op"})
		BackendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Count of backend API calls by outcome.",
		}, []string{"method", "route", "result"})
		BackendRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_ms",
			Help:      "Latency for backend API calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"method", "route"})
		EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Count of domain events published by outcome.",
		}, []string{"type", "result"})

		CompositionSubmitTotal = register(reg, CompositionSubmitTotal)
		DraftMutationsTotal = register(reg, DraftMutationsTotal)
		BackendRequestsTotal = register(reg, BackendRequestsTotal)
		BackendRequestLatency = register(reg, BackendRequestLatency)
		EventsPublishedTotal = register(reg, EventsPublishedTotal)
	})
}

// ObserveSubmit records a submission outcome if domain metrics are registered.
func ObserveSubmit(kind, result string) {
	if CompositionSubmitTotal != nil {
		CompositionSubmitTotal.WithLabelValues(kind, result).Inc()
	}
}

// ObserveDraftMutation records a draft operation if domain metrics are registered.
func ObserveDraftMutation(op string) {
	if DraftMutationsTotal != nil {
		DraftMutationsTotal.WithLabelValues(op).Inc()
	}
}
