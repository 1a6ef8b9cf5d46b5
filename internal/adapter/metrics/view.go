package metrics

import "github.com/prometheus/client_golang/prometheus"

// Refresh triggers used as label values.
const (
	TriggerMount        = "mount"
	TriggerNotification = "notification"
	TriggerPoll         = "poll"
	TriggerVoterChange  = "voter_change"
)

// ViewMetrics holds Prometheus metrics for live views and their refresh pipeline.
type ViewMetrics struct {
	Refreshes           *prometheus.CounterVec
	RefreshDuration     prometheus.Histogram
	FetchFailures       prometheus.Counter
	DegradedVoteLookups prometheus.Counter
	Notifications       *prometheus.CounterVec
	MountedViews        prometheus.Gauge
}

// NewViewMetrics creates and registers live view metrics on the given registry.
func NewViewMetrics(reg prometheus.Registerer) *ViewMetrics {
	m := &ViewMetrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "refreshes_total",
			Help:      "Total number of view refresh passes, by trigger.",
		}, []string{"trigger"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a fetch, merge and rank pass in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "fetch_failures_total",
			Help:      "Total number of refreshes that could not load the item view.",
		}),
		DegradedVoteLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "degraded_vote_lookups_total",
			Help:      "Total number of refreshes that proceeded without the viewer's own votes.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "notifications_total",
			Help:      "Total number of change notifications received by live views, by collection.",
		}, []string{"collection"}),
		MountedViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "mounted",
			Help:      "Number of currently mounted live views.",
		}),
	}

	reg.MustRegister(m.Refreshes, m.RefreshDuration, m.FetchFailures, m.DegradedVoteLookups, m.Notifications, m.MountedViews)
	return m
}
