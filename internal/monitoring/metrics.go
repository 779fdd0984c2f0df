package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesClassifiedTotal tracks classified queries by request kind
	QueriesClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songfetch_queries_classified_total",
			Help: "Total number of classified queries",
		},
		[]string{"kind"},
	)

	// CollectionsExpandedTotal tracks expanded collections by kind
	CollectionsExpandedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songfetch_collections_expanded_total",
			Help: "Total number of expanded collections",
		},
		[]string{"kind"},
	)

	// CollectionSongsTotal tracks songs flattened out of collections by kind
	CollectionSongsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songfetch_collection_songs_total",
			Help: "Total number of songs flattened from collections",
		},
		[]string{"kind"},
	)

	// RefreshesTotal tracks record refreshes by outcome
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songfetch_refreshes_total",
			Help: "Total number of record refreshes",
		},
		[]string{"status"},
	)

	// RefreshDuration tracks per-record refresh duration in seconds
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songfetch_refresh_duration_seconds",
			Help:    "Record refresh duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ActiveRefreshes tracks the number of in-flight refreshes
	ActiveRefreshes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "songfetch_active_refreshes",
			Help: "Number of in-flight record refreshes",
		},
	)

	// CatalogRequestsTotal tracks catalog API requests by endpoint and status
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songfetch_catalog_requests_total",
			Help: "Total number of catalog API requests",
		},
		[]string{"endpoint", "status"},
	)

	// CatalogRequestDuration tracks catalog API request duration
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songfetch_catalog_request_duration_seconds",
			Help:    "Catalog API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// ScannedFilesTotal tracks scanned library files by identifier source
	ScannedFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songfetch_scanned_files_total",
			Help: "Total number of scanned library files",
		},
		[]string{"source"},
	)

	// ScanDuration tracks library scan duration in seconds
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songfetch_scan_duration_seconds",
			Help:    "Library scan duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
	)

	// ErrorsTotal tracks errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songfetch_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

// Scanned-file identifier sources
const (
	ScanSourceTags    = "tags"
	ScanSourceSearch  = "search"
	ScanSourceSkipped = "skipped"
)

// RecordQueryClassified records a classified query
func RecordQueryClassified(kind string) {
	QueriesClassifiedTotal.WithLabelValues(kind).Inc()
}

// RecordCollectionExpanded records an expanded collection and its size
func RecordCollectionExpanded(kind string, size int) {
	CollectionsExpandedTotal.WithLabelValues(kind).Inc()
	CollectionSongsTotal.WithLabelValues(kind).Add(float64(size))
}

// RecordRefreshStart records the start of a record refresh
func RecordRefreshStart() {
	ActiveRefreshes.Inc()
}

// RecordRefreshComplete records a completed record refresh
func RecordRefreshComplete(duration time.Duration) {
	RefreshesTotal.WithLabelValues("completed").Inc()
	RefreshDuration.Observe(duration.Seconds())
	ActiveRefreshes.Dec()
}

// RecordRefreshFailed records a failed record refresh
func RecordRefreshFailed(errorType string) {
	RefreshesTotal.WithLabelValues("failed").Inc()
	ErrorsTotal.WithLabelValues(errorType).Inc()
	ActiveRefreshes.Dec()
}

// RecordCatalogRequest records a catalog API request
func RecordCatalogRequest(endpoint string, status string, duration time.Duration) {
	CatalogRequestsTotal.WithLabelValues(endpoint, status).Inc()
	CatalogRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordScannedFile records a scanned library file and how it was identified
func RecordScannedFile(source string) {
	ScannedFilesTotal.WithLabelValues(source).Inc()
}

// RecordScanComplete records a finished library scan
func RecordScanComplete(duration time.Duration) {
	ScanDuration.Observe(duration.Seconds())
}

// RecordError records an error
func RecordError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}
