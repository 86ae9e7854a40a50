// Package metrics provides Prometheus instrumentation for the asset cache.
//
// All metrics are registered through promauto at package initialisation and
// are prefixed with "asset_cache_".
//
// # Metric Categories
//
//   - HTTP: request counts, durations and in-flight requests of the sidecar API
//   - Image requests: deliveries by source (memory, disk, bundled, network,
//     placeholder) and placeholder resolutions by rule
//   - Transfers: outcomes, duration, deduplicated requests, priority
//     escalations, URL rewrites, deferred fetches
//   - Cache tiers: memory entries/bytes/evictions, disk files/bytes, disk
//     operation latency and swallowed errors, prune runs
//   - Connectivity: connected flag, active connection type, transitions
//   - Memory: heap usage ratio and pressure events
//   - Filesystem: retry behaviour on stale NFS handles
//
// Gauges that describe cache size are refreshed by Collector, which polls a
// StatsProvider on a fixed interval:
//
//	collector := metrics.NewCollector(loader, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// Call InitializeMetrics once at startup so every labelled series is
// exported from the first scrape.
package metrics
