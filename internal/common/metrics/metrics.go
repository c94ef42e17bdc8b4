package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "reward_tracker"

	TrackerSubsystem  = "tracker"
	NotifierSubsystem = "notifier"
)

// Общие метрики для всех сервисов.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)
)

// Метрики извлечения.
var (
	ExtractionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "extraction_runs_total",
			Help:      "Total number of extraction runs per source",
		},
		[]string{"source", "strategy", "status"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "extraction_duration_seconds",
			Help:      "Extraction run duration in seconds (p50, p95, p99)",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"source", "strategy"},
	)

	LinksExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "links_extracted_total",
			Help:      "Total number of new links published after deduplication",
		},
		[]string{"source", "record_type"},
	)

	DuplicatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "duplicates_skipped_total",
			Help:      "Total number of records dropped as already known",
		},
		[]string{"source", "record_type"},
	)

	SourceHealthStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "source_health_status",
			Help:      "Source health: 0=healthy, 1=warning, 2=failing, 3=unknown",
		},
		[]string{"source"},
	)

	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "alerts_created_total",
			Help:      "Total number of alerts created",
		},
		[]string{"alert_type", "severity"},
	)

	DatabaseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "database_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "database_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Метрики доставки уведомлений.
var (
	AlertsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: NotifierSubsystem,
			Name:      "alerts_delivered_total",
			Help:      "Total number of alerts delivered to operators",
		},
		[]string{"transport", "status"},
	)
)

func RecordHTTPRequest(service, method, endpoint string, statusCode int, duration time.Duration) {
	status := "success"
	if statusCode >= 400 {
		status = "error"
	}

	HTTPRequestsTotal.WithLabelValues(service, method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(service, method, endpoint).Observe(duration.Seconds())
}

func RecordExtractionRun(source, strategy, status string, duration time.Duration) {
	ExtractionRunsTotal.WithLabelValues(source, strategy, status).Inc()
	ExtractionDuration.WithLabelValues(source, strategy).Observe(duration.Seconds())
}

func RecordLinksExtracted(source, recordType string, count int) {
	LinksExtracted.WithLabelValues(source, recordType).Add(float64(count))
}

func RecordDuplicatesSkipped(source, recordType string, count int) {
	DuplicatesSkipped.WithLabelValues(source, recordType).Add(float64(count))
}

func UpdateSourceHealth(source string, statusCode float64) {
	SourceHealthStatus.WithLabelValues(source).Set(statusCode)
}

func RecordAlertCreated(alertType, severity string) {
	AlertsCreatedTotal.WithLabelValues(alertType, severity).Inc()
}

func RecordAlertDelivered(transport, status string) {
	AlertsDeliveredTotal.WithLabelValues(transport, status).Inc()
}

func RecordDatabaseQuery(operation, status string, duration time.Duration) {
	DatabaseQueriesTotal.WithLabelValues(operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
