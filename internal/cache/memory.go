package cache

import (
	"image"
	"sync"
	"sync/atomic"
	"time"

	"asset-cache/internal/logging"
	"asset-cache/internal/metrics"
)

// Entry is a decoded image held by the cache.
type Entry struct {
	Key        string
	Image      image.Image
	Cost       int64
	LastAccess time.Time
}

type memoryEntry struct {
	key   string
	image image.Image
	cost  int64

	// Updated under the read lock
	lastAccess atomic.Int64
	seq        atomic.Uint64
}

func (e *memoryEntry) snapshot() Entry {
	return Entry{
		Key:        e.key,
		Image:      e.image,
		Cost:       e.cost,
		LastAccess: time.Unix(0, e.lastAccess.Load()),
	}
}

// MemoryTier is an in-memory LRU bounded by entry count and total cost.
// A limit of zero disables that bound. Lookups run concurrently; inserts,
// evictions and removals are serialized.
type MemoryTier struct {
	mu         sync.RWMutex
	entries    map[string]*memoryEntry
	totalCost  int64
	countLimit int
	costLimit  int64

	clock atomic.Uint64
	now   func() time.Time
}

// NewMemoryTier creates a memory tier with the given limits.
func NewMemoryTier(countLimit int, costLimit int64) *MemoryTier {
	return &MemoryTier{
		entries:    make(map[string]*memoryEntry),
		countLimit: countLimit,
		costLimit:  costLimit,
		now:        time.Now,
	}
}

// Get returns the entry for key and marks it most recently used.
func (m *MemoryTier) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	e.seq.Store(m.clock.Add(1))
	e.lastAccess.Store(m.now().UnixNano())
	return e.snapshot(), true
}

// Contains reports whether key is cached without touching its recency.
func (m *MemoryTier) Contains(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

// Put stores img under key, replacing any previous entry, and evicts least
// recently used entries until both limits hold again. An image whose cost
// alone exceeds the cost limit is not stored.
func (m *MemoryTier) Put(key string, img image.Image, cost int64) bool {
	if m.costLimit > 0 && cost > m.costLimit {
		logging.Debug("Memory cache: %s cost %d exceeds limit %d, not cached", key, cost, m.costLimit)
		return false
	}

	e := &memoryEntry{key: key, image: img, cost: cost}
	e.seq.Store(m.clock.Add(1))
	e.lastAccess.Store(m.now().UnixNano())

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.totalCost -= old.cost
	}
	m.entries[key] = e
	m.totalCost += cost

	m.evictLocked(func() bool {
		return (m.countLimit > 0 && len(m.entries) > m.countLimit) ||
			(m.costLimit > 0 && m.totalCost > m.costLimit)
	}, "capacity")
	return true
}

// Remove deletes key. It reports whether an entry was present.
func (m *MemoryTier) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false
	}
	delete(m.entries, key)
	m.totalCost -= e.cost
	return true
}

// Clear drops every entry.
func (m *MemoryTier) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*memoryEntry)
	m.totalCost = 0
}

// Trim evicts least recently used entries until at most fraction of the
// current cost remains, and returns how many were evicted.
func (m *MemoryTier) Trim(fraction float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fraction <= 0 {
		n := len(m.entries)
		m.entries = make(map[string]*memoryEntry)
		m.totalCost = 0
		metrics.MemoryCacheEvictionsTotal.WithLabelValues("pressure").Add(float64(n))
		return n
	}

	target := int64(float64(m.totalCost) * fraction)
	return m.evictLocked(func() bool { return m.totalCost > target }, "pressure")
}

// evictLocked removes the least recently used entry while over returns true.
func (m *MemoryTier) evictLocked(over func() bool, reason string) int {
	evicted := 0
	for len(m.entries) > 0 && over() {
		var victim *memoryEntry
		for _, e := range m.entries {
			if victim == nil || e.seq.Load() < victim.seq.Load() {
				victim = e
			}
		}
		delete(m.entries, victim.key)
		m.totalCost -= victim.cost
		evicted++
		logging.Debug("Memory cache: evicted %s (%s, cost %d)", victim.key, reason, victim.cost)
	}
	if evicted > 0 {
		metrics.MemoryCacheEvictionsTotal.WithLabelValues(reason).Add(float64(evicted))
	}
	return evicted
}

// Len returns the number of cached entries.
func (m *MemoryTier) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Cost returns the total cost of cached entries.
func (m *MemoryTier) Cost() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalCost
}

// Limits returns the configured count and cost limits.
func (m *MemoryTier) Limits() (count int, cost int64) {
	return m.countLimit, m.costLimit
}
