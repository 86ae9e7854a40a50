package memory

import (
	"math"
	"runtime"
	"sync"
	"time"

	"asset-cache/internal/logging"
	"asset-cache/internal/metrics"
)

// Config holds memory management configuration
type Config struct {
	// MemoryLimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	MemoryLimitBytes int64

	// HighWaterMark is the fraction of the limit at which the memory tier is
	// trimmed to half its size (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the fraction at which the memory tier is emptied (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often to check memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory management
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes:  0, // Use GOMEMLIMIT if set
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Trimmer releases cached memory. TrimMemory keeps at most fraction of the
// current cache and returns how many entries it dropped.
type Trimmer interface {
	TrimMemory(fraction float64) int
}

// Level is the memory pressure level.
type Level int

const (
	LevelNormal Level = iota
	LevelHigh
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelHigh:
		return "high"
	case LevelCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Monitor samples heap usage and trims the cache when it crosses the water
// marks, the way an OS memory warning would.
type Monitor struct {
	config   Config
	limit    int64
	trimmer  Trimmer
	stopChan chan struct{}
	stopOnce sync.Once

	// readAlloc is replaced in tests
	readAlloc func() uint64

	mu      sync.RWMutex
	current uint64
	level   Level
}

// NewMonitor creates a new memory monitor. trimmer may be nil.
func NewMonitor(config Config, trimmer Trimmer) *Monitor {
	limit := config.MemoryLimitBytes

	// If no explicit limit, try to get GOMEMLIMIT
	if limit == 0 {
		if goMemLimit := CurrentLimit(); goMemLimit > 0 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %d bytes (%.1f MB)", limit, float64(limit)/(1024*1024))
		}
	}

	if limit == 0 {
		logging.Warn("Memory monitor: no memory limit configured, cache trimming disabled")
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		trimmer:   trimmer,
		stopChan:  make(chan struct{}),
		readAlloc: readHeapAlloc,
	}
}

func readHeapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins monitoring memory usage
func (m *Monitor) Start() {
	if m.limit == 0 {
		return // No limit configured, nothing to monitor
	}

	go m.monitorLoop()
}

// Stop stops the memory monitor. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkMemory()
		case <-m.stopChan:
			return
		}
	}
}

// checkMemory trims once per escalation. Staying at a level does not trim
// again; dropping below the high water mark re-arms both levels.
func (m *Monitor) checkMemory() {
	alloc := m.readAlloc()

	m.mu.Lock()
	m.current = alloc
	prev := m.level

	var usage float64
	if m.limit > 0 {
		usage = float64(alloc) / float64(m.limit)
	}
	metrics.MemoryUsageRatio.Set(usage)

	next := LevelNormal
	switch {
	case usage >= m.config.CriticalWaterMark:
		next = LevelCritical
	case usage >= m.config.HighWaterMark:
		next = LevelHigh
	}
	if next < prev && next != LevelNormal {
		// Hysteresis: only leave pressure entirely once below the high mark
		next = prev
	}
	m.level = next
	m.mu.Unlock()

	if next <= prev {
		if next != prev {
			logging.Info("Memory recovered (%.1f%% of limit)", usage*100)
		}
		return
	}

	metrics.MemoryPressureEventsTotal.WithLabelValues(next.String()).Inc()

	fraction := 0.5
	if next == LevelCritical {
		fraction = 0
	}
	dropped := 0
	if m.trimmer != nil {
		dropped = m.trimmer.TrimMemory(fraction)
	}
	logging.Warn("Memory %s (%.1f%% of limit), dropped %d cached images", next, usage*100, dropped)

	if next == LevelCritical {
		go runtime.GC()
	}
}

// Level returns the current pressure level.
func (m *Monitor) Level() Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// GetStats returns current memory statistics
func (m *Monitor) GetStats() (current, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Safe conversion from uint64 to int64, capping at max int64
	var currentInt64 int64
	if m.current > math.MaxInt64 {
		currentInt64 = math.MaxInt64
	} else {
		currentInt64 = int64(m.current)
	}

	var usageRatio float64
	if m.limit > 0 {
		usageRatio = float64(m.current) / float64(m.limit)
	}

	return currentInt64, m.limit, usageRatio
}
