// Package memory controls the Go runtime's memory use in containers and
// sheds cached images under memory pressure.
//
// # Configuration
//
// GOMEMLIMIT is not derived from cgroup limits automatically. Call
// [ConfigureFromEnv] early in main, before significant allocations:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ... rest of application
//	}
//
// Environment variables:
//
//   - GOMEMLIMIT: Standard Go environment variable. Takes precedence over
//     everything else.
//
//   - MEMORY_LIMIT: Container memory limit in bytes, typically from the
//     Kubernetes Downward API:
//
//     env:
//     - name: MEMORY_LIMIT
//     valueFrom:
//     resourceFieldRef:
//     resource: limits.memory
//
//   - MEMORY_RATIO: Share of MEMORY_LIMIT given to the Go heap (default 0.85).
//     Lower it when libvips is enabled, since its buffers live outside the
//     Go heap.
//
// [MemoryTierBudget] turns the resulting limit into a byte budget for the
// decoded-image memory tier.
//
// # Pressure monitoring
//
// [Monitor] samples the heap every CheckInterval. Crossing HighWaterMark
// trims the cache to half its cost; crossing CriticalWaterMark empties it
// and forces a GC. Each level triggers once and re-arms after usage falls
// back below HighWaterMark.
package memory
