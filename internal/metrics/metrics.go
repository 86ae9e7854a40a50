package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_cache_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Image request metrics
var (
	ImageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_image_requests_total",
			Help: "Total number of image requests by the source that satisfied them",
		},
		[]string{"source"}, // "memory", "disk", "bundled", "network", "placeholder"
	)

	ImageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_cache_image_request_duration_seconds",
			Help:    "Time from request to delivery in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30},
		},
		[]string{"source"},
	)

	PlaceholdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_placeholders_total",
			Help: "Total number of placeholder resolutions by matching rule",
		},
		[]string{"rule"}, // "keyword", "category", "default", "glyph"
	)
)

// Transfer metrics
var (
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_transfers_total",
			Help: "Total number of network transfers by outcome",
		},
		[]string{"status"},
	)

	TransferDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asset_cache_transfer_duration_seconds",
			Help:    "Network transfer duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	TransfersInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_transfers_in_flight",
			Help: "Number of registered in-flight transfers",
		},
	)

	TransfersQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_transfers_queued",
			Help: "Number of transfers waiting for a worker",
		},
	)

	TransferDedupTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_cache_transfer_dedup_total",
			Help: "Requests that attached to an existing in-flight transfer",
		},
	)

	PriorityEscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_cache_priority_escalations_total",
			Help: "In-flight transfers escalated from low to high priority",
		},
	)

	URLRewritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_cache_url_rewrites_total",
			Help: "Provider URLs rewritten for reduced payload on expensive connections",
		},
	)

	DeferredPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_deferred_pending",
			Help: "Fetches waiting for connectivity to be restored",
		},
	)

	DeferredCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_deferred_completed_total",
			Help: "Deferred fetches that ran after connectivity returned",
		},
		[]string{"status"}, // "stored", "dropped"
	)
)

// Cache tier metrics
var (
	MemoryCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_memory_entries",
			Help: "Number of decoded images in the memory tier",
		},
	)

	MemoryCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_memory_bytes",
			Help: "Total cost in bytes of the memory tier",
		},
	)

	MemoryCacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_memory_evictions_total",
			Help: "Entries evicted from the memory tier",
		},
		[]string{"reason"}, // "capacity", "pressure"
	)

	DiskCacheFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_disk_files",
			Help: "Number of files in the disk tier",
		},
	)

	DiskCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_disk_bytes",
			Help: "Total size of the disk tier in bytes",
		},
	)

	DiskOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_cache_disk_operation_duration_seconds",
			Help:    "Disk tier operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"}, // "read", "write", "remove", "prune"
	)

	DiskErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_disk_errors_total",
			Help: "Disk tier I/O failures (swallowed, memory-only fallback)",
		},
		[]string{"operation"},
	)

	PruneRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_cache_prune_runs_total",
			Help: "Total number of disk prune runs",
		},
	)

	PruneFilesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_cache_prune_files_removed_total",
			Help: "Total number of stale disk files removed",
		},
	)

	PruneBytesFreedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_cache_prune_bytes_freed_total",
			Help: "Total bytes freed by disk pruning",
		},
	)
)

// Connectivity metrics
var (
	ConnectivityConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_connectivity_connected",
			Help: "Whether the network path is usable (1 = connected)",
		},
	)

	ConnectivityType = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asset_cache_connectivity_type",
			Help: "Current connection type (1 for the active type)",
		},
		[]string{"type"},
	)

	ConnectivityTransitionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_cache_connectivity_transitions_total",
			Help: "Number of connectivity state changes",
		},
	)
)

// Memory monitor metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_cache_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPressureEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_memory_pressure_events_total",
			Help: "Memory pressure events that trimmed the memory tier",
		},
		[]string{"level"}, // "high", "critical"
	)
)

// Filesystem retry metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_cache_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration including retries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_filesystem_retry_attempts_total",
			Help: "Retries caused by stale NFS file handles",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asset_cache_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
