package resilience

import "github.com/prometheus/client_golang/prometheus"

// Breaker collectors, registered on the default registry.
var (
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pos",
		Name:      "breaker_state",
		Help:      "Breaker position per target: 0 closed, 1 open, 2 half-open.",
	}, []string{"target"})

	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "breaker_transitions_total",
		Help:      "Breaker state changes per target.",
	}, []string{"target", "from", "to"})

	BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "breaker_open_total",
		Help:      "Times a breaker opened per target.",
	}, []string{"target"})
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal)
}
