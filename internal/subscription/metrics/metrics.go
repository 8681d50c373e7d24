package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the subscription ledger.
type Metrics struct {
	SubscriptionEvents *prometheus.CounterVec
	PremiumsPaid       prometheus.Counter
	PremiumVolume      prometheus.Counter
	LatePayments       prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubscriptionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_subscription_events_total",
			Help: "Subscription lifecycle events by kind",
		}, []string{"event"}),
		PremiumsPaid: factory.NewCounter(prometheus.CounterOpts{
			Name: "villageinsure_premiums_paid_total",
			Help: "Total number of weekly premiums paid",
		}),
		PremiumVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "villageinsure_premium_volume_total",
			Help: "Sum of premiums and penalties credited to the pool",
		}),
		LatePayments: factory.NewCounter(prometheus.CounterOpts{
			Name: "villageinsure_premiums_late_total",
			Help: "Premium payments made in grace period or suspension",
		}),
	}
}

func (m *Metrics) IncrementEvent(event string) {
	m.SubscriptionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ObservePayment(amount float64, late bool) {
	m.PremiumsPaid.Inc()
	m.PremiumVolume.Add(amount)
	if late {
		m.LatePayments.Inc()
	}
}
