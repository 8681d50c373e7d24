package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the user registry.
type Metrics struct {
	UsersRegistered   prometheus.Counter
	CreditAdjustments *prometheus.CounterVec
	MembershipChanges *prometheus.CounterVec
}

// New registers the registry metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "villageinsure_users_registered_total",
			Help: "Total number of registered wallets",
		}),
		CreditAdjustments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_credit_adjustments_total",
			Help: "Credit score adjustments by direction",
		}, []string{"direction"}),
		MembershipChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_membership_changes_total",
			Help: "Registry status and DAO membership changes by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementUsersRegistered() {
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncrementCreditAdjustment(delta int) {
	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	m.CreditAdjustments.WithLabelValues(direction).Inc()
}

func (m *Metrics) IncrementMembershipChange(kind string) {
	m.MembershipChanges.WithLabelValues(kind).Inc()
}
