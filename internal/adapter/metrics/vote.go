package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoteMetrics holds Prometheus metrics for vote and item mutations.
type VoteMetrics struct {
	Mutations   *prometheus.CounterVec
	Submissions *prometheus.CounterVec
}

// NewVoteMetrics creates and registers mutation metrics on the given registry.
func NewVoteMetrics(reg prometheus.Registerer) *VoteMetrics {
	m := &VoteMetrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_mutations_total",
			Help:      "Total number of vote mutations, by operation and result.",
		}, []string{"operation", "result"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_submissions_total",
			Help:      "Total number of feedback submissions, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Mutations, m.Submissions)
	return m
}
