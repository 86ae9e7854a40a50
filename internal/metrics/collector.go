package metrics

import (
	"time"

	"asset-cache/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	CollectStats() Stats
}

// Stats holds the current cache statistics
type Stats struct {
	MemoryEntries   int
	MemoryBytes     int64
	DiskFiles       int
	DiskBytes       int64
	InFlight        int
	Queued          int
	DeferredPending int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.CollectStats()

	MemoryCacheEntries.Set(float64(stats.MemoryEntries))
	MemoryCacheBytes.Set(float64(stats.MemoryBytes))
	DiskCacheFiles.Set(float64(stats.DiskFiles))
	DiskCacheBytes.Set(float64(stats.DiskBytes))
	TransfersInFlight.Set(float64(stats.InFlight))
	TransfersQueued.Set(float64(stats.Queued))
	DeferredPending.Set(float64(stats.DeferredPending))

	logging.Debug("Metrics collected: memory=%d (%d bytes), disk=%d (%d bytes), in-flight=%d, queued=%d, deferred=%d",
		stats.MemoryEntries, stats.MemoryBytes, stats.DiskFiles, stats.DiskBytes,
		stats.InFlight, stats.Queued, stats.DeferredPending)
}
