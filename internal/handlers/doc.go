// Package handlers provides the HTTP surface of the asset cache.
//
// It includes handlers for:
//   - Image requests, cancellation and priority updates
//   - Cache statistics, clearing and pruning
//   - Connectivity state
//   - Health checks and version information
//
// Image responses are always JPEG. When the loader falls back to a
// placeholder the response is still 200, with X-Image-Source set to
// "placeholder" and X-Placeholder-Asset naming the asset.
package handlers
