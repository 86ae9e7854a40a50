/*
Package workers sizes and runs the bounded goroutine pools used by the asset
cache.

# Sizing

When running in a container the number of usable CPUs may be limited by
cgroup constraints. Go 1.19+ sets GOMAXPROCS from those limits while
runtime.NumCPU() still reports the host's CPUs, so worker counts are derived
from GOMAXPROCS:

	// Network transfers and disk cache I/O: 2 workers per CPU, at most 8
	n := workers.ForIO(8)

	// Decode/resize work: 1 worker per CPU
	n := workers.ForCPU(4)

The ASSET_CACHE_WORKERS environment variable overrides the calculation (the
limit still applies):

	env:
	- name: ASSET_CACHE_WORKERS
	  value: "4"

# Priority pool

Pool executes jobs on a fixed set of goroutines with two queues. High
priority jobs are always taken before low priority ones, and a queued low
priority job can be promoted through its Handle:

	pool := workers.NewPool(workers.ForIO(8))
	defer pool.Close()

	h := pool.Submit(func() { download(url) }, false)
	// later, the image became visible
	h.Promote()

Promotion never demotes and never interrupts a job that is already running.
Close drains the queue before returning.
*/
package workers
