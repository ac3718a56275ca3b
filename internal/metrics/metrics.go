package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on their own registry so tests can build as many
// instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	Submissions         *prometheus.CounterVec
	Duplicates          *prometheus.CounterVec
	SubmitDuration      *prometheus.HistogramVec
	RosterInvalidations *prometheus.CounterVec
	LedgerRowsWritten   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catan_submissions_total",
			Help: "Replay submissions by division and outcome",
		}, []string{"division", "outcome"}),
		Duplicates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catan_duplicate_submissions_total",
			Help: "Submissions flagged as already present in the ledger",
		}, []string{"division"}),
		SubmitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catan_submission_duration_seconds",
			Help:    "Duration of the full submission pipeline",
			Buckets: prometheus.DefBuckets,
		}, []string{"division"}),
		RosterInvalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catan_roster_invalidations_total",
			Help: "Roster cache invalidations by division",
		}, []string{"division"}),
		LedgerRowsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catan_ledger_rows_written_total",
			Help: "Ledger rows written by division",
		}, []string{"division"}),
	}
}
