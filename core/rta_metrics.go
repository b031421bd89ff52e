package core

// rta_metrics.go – Prometheus counters for the RTA protocol, wired the same
// way the rest of the node exposes operational metrics.

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rtaVotesAdmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synnergy",
		Subsystem: "rta",
		Name:      "votes_admitted_total",
		Help:      "Number of RTA votes admitted into a tally, by result.",
	}, []string{"result"})

	rtaQuorumTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synnergy",
		Subsystem: "rta",
		Name:      "quorum_transitions_total",
		Help:      "Number of times a payment's tally crossed a quorum threshold, by outcome.",
	}, []string{"outcome"})

	rtaStatusBroadcasts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synnergy",
		Subsystem: "rta",
		Name:      "status_broadcasts_total",
		Help:      "Number of final-status broadcasts emitted, by status.",
	}, []string{"status"})

	rtaContextEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "synnergy",
		Subsystem: "rta",
		Name:      "context_entries",
		Help:      "Approximate number of live entries in the RTA payment context.",
	})
)

func init() {
	prometheus.MustRegister(rtaVotesAdmitted, rtaQuorumTransitions, rtaStatusBroadcasts, rtaContextEntries)
}

func observeVoteAdmitted(result VoteResult) {
	rtaVotesAdmitted.WithLabelValues(result.String()).Inc()
}

func observeQuorumTransition(outcome string) {
	rtaQuorumTransitions.WithLabelValues(outcome).Inc()
}

func observeStatusBroadcast(status RtaStatus) {
	rtaStatusBroadcasts.WithLabelValues(status.String()).Inc()
}

func observeContextSize(n int) {
	rtaContextEntries.Set(float64(n))
}
