/*
Package filesystem provides resilient filesystem operations for the disk
cache tier, with automatic retry for NFS stale file handle errors.

# Purpose

The disk tier may live on a network mount. Transient ESTALE errors (stale
file handle) are retried with exponential backoff; every other error is
returned immediately so the caller can fall back to memory-only caching.

# Usage

	cfg := filesystem.DefaultRetryConfig()

	data, err := filesystem.ReadFileWithRetry(path, cfg)

	// Readers never see a partially written entry
	err = filesystem.WriteFileAtomic(path, encoded, cfg)

	err = filesystem.RemoveWithRetry(path, cfg) // missing files are not an error

# Retry Behavior

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms.

# Metrics

Register an Observer at startup (metrics.NewFilesystemObserver) to export
operation durations and retry counts. Without one, nothing is recorded.
*/
package filesystem
