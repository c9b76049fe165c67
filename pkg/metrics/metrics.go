package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Model-service metrics
	EntitiesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orchestrator_entities_total",
			Help: "Total number of persisted entities by model type",
		},
		[]string{"model_type"},
	)

	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_mutations_total",
			Help: "Total number of model mutations by model type and event type",
		},
		[]string{"model_type", "event_type"},
	)

	MutationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orchestrator_mutation_duration_seconds",
			Help:    "Time taken to persist a mutation and append its event",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model_type"},
	)

	// Event stream metrics
	StreamQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orchestrator_stream_queue_depth",
			Help: "Number of unacknowledged events pending for a consumer",
		},
		[]string{"consumer_id"},
	)

	StreamPollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orchestrator_stream_poll_duration_seconds",
			Help:    "Time taken for one receive() poll",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"consumer_id"},
	)

	// Reconciler metrics
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orchestrator_reconciliation_duration_seconds",
			Help:    "Time taken for one reconciliation pass over a batch of events",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orchestrator_reconciliation_cycles_total",
			Help: "Total number of reconciliation passes completed",
		},
	)

	AssignmentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orchestrator_assignments_total",
			Help: "Total number of persisted assignments",
		},
	)

	AssignmentChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_assignment_changes_total",
			Help: "Total number of assignment creations/deletions issued by the reconciler",
		},
		[]string{"event_type"},
	)

	// Template renderer metrics
	RenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orchestrator_render_duration_seconds",
			Help:    "Time taken to render one Deployment bundle",
			Buckets: prometheus.DefBuckets,
		},
	)

	RenderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_render_failures_total",
			Help: "Total number of template render failures by reason",
		},
		[]string{"reason"},
	)

	TemplateCloneDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orchestrator_template_clone_duration_seconds",
			Help:    "Time taken to clone or fetch a template repository",
			Buckets: prometheus.DefBuckets,
		},
	)

	// GitOps writer metrics
	GitOpsCommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orchestrator_gitops_commits_total",
			Help: "Total number of commits made to the GitOps repository",
		},
	)

	GitOpsPushRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orchestrator_gitops_push_retries_total",
			Help: "Total number of push retries after a fetch-rebase conflict",
		},
	)

	GitOpsCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orchestrator_gitops_commit_duration_seconds",
			Help:    "Time taken to stage, commit and push one batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_api_requests_total",
			Help: "Total number of gRPC requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orchestrator_api_request_duration_seconds",
			Help:    "gRPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		EntitiesTotal,
		MutationsTotal,
		MutationDuration,
		StreamQueueDepth,
		StreamPollDuration,
		ReconciliationDuration,
		ReconciliationCyclesTotal,
		AssignmentsTotal,
		AssignmentChangesTotal,
		RenderDuration,
		RenderFailuresTotal,
		TemplateCloneDuration,
		GitOpsCommitsTotal,
		GitOpsPushRetriesTotal,
		GitOpsCommitDuration,
		APIRequestsTotal,
		APIRequestDuration,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
