package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks claim adjudication.
type Metrics struct {
	ClaimsSubmitted prometheus.Counter
	ClaimVotes      *prometheus.CounterVec
	ClaimOutcomes   *prometheus.CounterVec
	PayoutAmount    prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClaimsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "villageinsure_claims_submitted_total",
			Help: "Total number of claims submitted",
		}),
		ClaimVotes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_claim_votes_total",
			Help: "Claim votes cast, by direction",
		}, []string{"direction"}),
		ClaimOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_claim_outcomes_total",
			Help: "Claim decisions by outcome and path",
		}, []string{"outcome", "path"}),
		PayoutAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "villageinsure_claim_payout_amount",
			Help:    "Distribution of paid claim amounts",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	m.ClaimsSubmitted.Inc()
}

func (m *Metrics) IncrementVote(approve bool) {
	direction := "against"
	if approve {
		direction = "for"
	}
	m.ClaimVotes.WithLabelValues(direction).Inc()
}

func (m *Metrics) IncrementOutcome(outcome, path string) {
	m.ClaimOutcomes.WithLabelValues(outcome, path).Inc()
}

func (m *Metrics) ObservePayout(amount float64) {
	m.PayoutAmount.Observe(amount)
}
