package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the policy catalog.
type Metrics struct {
	PoliciesProposed  prometheus.Counter
	PolicyTransitions  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PoliciesProposed: factory.NewCounter(prometheus.CounterOpts{
			Name: "villageinsure_policies_proposed_total",
			Help: "Total number of proposed policies",
		}),
		PolicyTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_policy_transitions_total",
			Help: "Policy status transitions by target status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementProposed() {
	m.PoliciesProposed.Inc()
}

func (m *Metrics) IncrementTransition(status string) {
	m.PolicyTransitions.WithLabelValues(status).Inc()
}
