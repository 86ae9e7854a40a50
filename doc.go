// Package main provides the entry point for the Asset Cache service.
//
// Asset Cache serves catalog images through a two tier cache. Requests are
// answered from a memory LRU, then a disk directory, then bundled assets, and
// finally the network. While offline or after a failed transfer a placeholder
// image chosen from the request identifier and category is returned instead,
// and the download is retried once connectivity returns.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or cgroup limits
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Metrics Registration: Publishes build info and pre-populates label sets
//  4. Component Initialization:
//     - libvips: Enables decode-time shrinking of disk hits (if VIPS_ENABLED)
//     - Loader: Opens the disk tier, starts connectivity monitoring and pruning
//     - Memory Monitor: Trims the memory tier under heap pressure
//  5. HTTP Server Setup: Configures routes, middleware, and starts servers
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # Background Services
//
//   - Connectivity Monitor: Polls network interfaces for path changes
//   - Disk Pruner: Removes entries unused for PRUNE_MAX_AGE_DAYS
//   - Disk Watcher: Invalidates disk statistics on external changes
//   - Metrics Collector: Exports cache statistics every 30 seconds
//
// # Metrics
//
// When METRICS_ENABLED is true, Prometheus metrics are served on a separate
// port (METRICS_PORT) at /metrics. Every metric carries the asset_cache_ prefix.
//
// See package startup for the full list of environment variables, and the
// cachectl command for offline maintenance of the disk tier.
package main
