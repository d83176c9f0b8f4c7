package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordingsProcessed tracks finished processing attempts per outcome.
	RecordingsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slaq_recordings_processed_total",
			Help: "Total number of recording processing attempts",
		},
		[]string{"status"},
	)

	// AnalysisRequests tracks scoring oracle calls per outcome.
	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slaq_analysis_requests_total",
			Help: "Total number of scoring oracle requests",
		},
		[]string{"outcome"},
	)

	// AnalysisLatency tracks scoring oracle call latency.
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slaq_analysis_latency_seconds",
			Help:    "Scoring oracle call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// RetriesScheduled tracks processing retries placed back on the queue.
	RetriesScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slaq_retries_scheduled_total",
			Help: "Total number of retry attempts scheduled",
		},
	)

	// StutterEventsCreated tracks classified events persisted.
	StutterEventsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slaq_stutter_events_created_total",
			Help: "Total number of stutter events created",
		},
	)

	// ReportsGenerated tracks report generation outcomes.
	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slaq_reports_generated_total",
			Help: "Total number of report generation attempts",
		},
		[]string{"status"},
	)

	// QueueDepth tracks the number of queued work units, ready or delayed.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slaq_queue_depth",
			Help: "Number of queued work units",
		},
	)

	// DBConnectionPoolUsage tracks database pool utilisation percentage.
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slaq_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)
)
