package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, source := range []string{"memory", "disk", "bundled", "network", "placeholder"} {
		ImageRequestsTotal.WithLabelValues(source)
		ImageRequestDuration.WithLabelValues(source)
	}

	for _, rule := range []string{"keyword", "category", "default", "glyph"} {
		PlaceholdersTotal.WithLabelValues(rule)
	}

	for _, status := range []string{"success", "error_status", "error_timeout", "error_transport", "error_decode", "cancelled"} {
		TransfersTotal.WithLabelValues(status)
	}

	for _, status := range []string{"stored", "dropped"} {
		DeferredCompletedTotal.WithLabelValues(status)
	}

	for _, reason := range []string{"capacity", "pressure"} {
		MemoryCacheEvictionsTotal.WithLabelValues(reason)
	}

	for _, op := range []string{"read", "write", "remove", "prune"} {
		DiskOperationDuration.WithLabelValues(op)
		DiskErrorsTotal.WithLabelValues(op)
	}

	for _, t := range []string{"wifi", "cellular", "wiredEthernet", "loopback", "other", "none"} {
		ConnectivityType.WithLabelValues(t)
	}

	for _, level := range []string{"high", "critical"} {
		MemoryPressureEventsTotal.WithLabelValues(level)
	}

	for _, op := range []string{"stat", "read", "write", "remove"} {
		FilesystemOperationDuration.WithLabelValues(op)
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
	}
}
