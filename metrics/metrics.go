package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for case and analytics activity.
type Metrics struct {
	CasesCreated        prometheus.Counter
	CasesArchived       prometheus.Counter
	StatusChanges       prometheus.Counter
	EvidenceAttached    prometheus.Counter
	ConsistencyWarnings prometheus.Counter
	EntriesReconciled   prometheus.Counter
	AnalyticsCache      *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
}

// New creates the counters and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CasesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "hrcases_cases_created_total",
			Help: "Total number of cases created",
		}),
		CasesArchived: f.NewCounter(prometheus.CounterOpts{
			Name: "hrcases_cases_archived_total",
			Help: "Total number of archive requests that succeeded",
		}),
		StatusChanges: f.NewCounter(prometheus.CounterOpts{
			Name: "hrcases_status_changes_total",
			Help: "Total number of committed case status changes",
		}),
		EvidenceAttached: f.NewCounter(prometheus.CounterOpts{
			Name: "hrcases_evidence_items_attached_total",
			Help: "Total number of evidence items appended to cases",
		}),
		ConsistencyWarnings: f.NewCounter(prometheus.CounterOpts{
			Name: "hrcases_journal_consistency_warnings_total",
			Help: "Status changes whose journal entry could not be written immediately",
		}),
		EntriesReconciled: f.NewCounter(prometheus.CounterOpts{
			Name: "hrcases_journal_entries_reconciled_total",
			Help: "Pending journal entries written by the reconciler",
		}),
		AnalyticsCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcases_analytics_cache_requests_total",
			Help: "Analytics cache lookups by result",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcases_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "status"}),
	}
}

// NewNop returns metrics bound to a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
