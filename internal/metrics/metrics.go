package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MatchesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lanparty_matches_generated_total", Help: "Total matches created by stage generation"},
		[]string{"kind"},
	)
	MatchesLaunched = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "lanparty_matches_launched_total", Help: "Total matches launched"},
	)
	ScoresRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lanparty_scores_recorded_total", Help: "Total score submissions by outcome"},
		[]string{"outcome"},
	)
	StagesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lanparty_stages_completed_total", Help: "Total stages whose last match completed"},
		[]string{"kind"},
	)
	InvariantViolations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "lanparty_invariant_violations_total", Help: "Total operations aborted by a structural invariant"},
	)
)

func Register() {
	prometheus.MustRegister(MatchesGenerated, MatchesLaunched, ScoresRecorded, StagesCompleted, InvariantViolations)
}
