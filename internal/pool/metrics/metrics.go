package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ledger movements and the resulting balance.
type Metrics struct {
	Movements      *prometheus.CounterVec
	TotalBalance   prometheus.Gauge
	ReserveRatio   prometheus.Gauge
	RejectedDebits *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Movements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_pool_movements_total",
			Help: "Safety pool ledger movements by kind",
		}, []string{"kind"}),
		TotalBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "villageinsure_pool_total_balance",
			Help: "Current safety pool balance",
		}),
		ReserveRatio: factory.NewGauge(prometheus.GaugeOpts{
			Name: "villageinsure_pool_reserve_ratio_bps",
			Help: "Current reserve ratio in basis points",
		}),
		RejectedDebits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_pool_rejected_debits_total",
			Help: "Debits refused by the reserve rules, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveMovement(kind string, balance float64, reserveRatioBps int64) {
	m.Movements.WithLabelValues(kind).Inc()
	m.TotalBalance.Set(balance)
	m.ReserveRatio.Set(float64(reserveRatioBps))
}

func (m *Metrics) IncrementRejectedDebit(kind string) {
	m.RejectedDebits.WithLabelValues(kind).Inc()
}
