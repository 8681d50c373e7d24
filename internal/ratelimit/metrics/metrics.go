package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejections  *prometheus.CounterVec
	StoreErrors prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_ratelimit_rejections_total",
			Help: "Requests rejected by the write rate limiter, by key kind",
		}, []string{"kind"}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "villageinsure_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed open because the store errored",
		}),
	}
}

func (m *Metrics) IncrementRejection(kind string) {
	m.Rejections.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementStoreError() {
	m.StoreErrors.Inc()
}
