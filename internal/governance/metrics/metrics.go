package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the proposal lifecycle.
type Metrics struct {
	ProposalsCreated   *prometheus.CounterVec
	ProposalVotes      prometheus.Counter
	ProposalExecutions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProposalsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_proposals_created_total",
			Help: "Proposals created, by type",
		}, []string{"type"}),
		ProposalVotes: factory.NewCounter(prometheus.CounterOpts{
			Name: "villageinsure_proposal_votes_total",
			Help: "Total number of proposal votes cast",
		}),
		ProposalExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villageinsure_proposal_executions_total",
			Help: "Proposal execution attempts by type and result",
		}, []string{"type", "result"}),
	}
}

func (m *Metrics) IncrementCreated(proposalType string) {
	m.ProposalsCreated.WithLabelValues(proposalType).Inc()
}

func (m *Metrics) IncrementVote() {
	m.ProposalVotes.Inc()
}

func (m *Metrics) IncrementExecution(proposalType, result string) {
	m.ProposalExecutions.WithLabelValues(proposalType, result).Inc()
}
