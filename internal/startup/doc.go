// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - CACHE_DIR: Disk tier directory (default: /cache)
//   - ASSETS_DIR: Bundled asset directory (default: /assets)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - MEMORY_CACHE_COUNT: Memory tier entry limit (default: 100)
//   - MEMORY_CACHE_BYTES: Memory tier cost limit in bytes (default: derived from GOMEMLIMIT)
//   - CACHE_MEMORY_RATIO: Share of GOMEMLIMIT given to the memory tier (default: 0.25)
//   - PRUNE_INTERVAL: Disk prune interval as Go duration, 0 disables (default: 24h)
//   - PRUNE_MAX_AGE_DAYS: Age at which disk entries are pruned (default: 7)
//   - SCREEN_SCALE: Display scale used when rewriting provider URLs (default: 2)
//   - LOW_POWER_MODE: Use the low power quality table (default: false)
//   - CONNECTIVITY_POLL_INTERVAL: Network interface poll interval (default: 5s)
//   - VIPS_ENABLED: Use libvips for disk-hit downsampling (default: false)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// The cache directory is created if needed; when it is not writable the disk
// tier is disabled and the cache runs memory-only. A missing assets directory
// falls back to generated placeholder swatches.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
