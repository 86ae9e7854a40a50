package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"asset-cache/internal/cache"
	"asset-cache/internal/connectivity"
	"asset-cache/internal/fetch"
	"asset-cache/internal/loader"
	"asset-cache/internal/media"
	"asset-cache/internal/memory"
)

// ImageLoader is the part of loader.Loader the HTTP surface uses.
type ImageLoader interface {
	Load(ctx context.Context, identifier string, opts ...loader.Option) fetch.Result
	UpdatePriority(identifier string, high bool) bool
	CancelRequest(identifier string) bool
	ClearMemoryCache()
	ClearCache(ctx context.Context)
	PruneStale(ctx context.Context, days int) (cache.PruneResult, error)
	CacheStatistics(ctx context.Context) loader.Statistics
	Connectivity() connectivity.State
	Quality() media.Quality
}

// MemoryReporter reports heap usage against GOMEMLIMIT.
type MemoryReporter interface {
	GetStats() (current, limit int64, usage float64)
	Level() memory.Level
}

type Handlers struct {
	loader    ImageLoader
	mem       MemoryReporter
	startTime time.Time
	ready     atomic.Bool
}

func New(l ImageLoader) *Handlers {
	return &Handlers{
		loader:    l,
		startTime: time.Now(),
	}
}

// SetMemoryReporter adds heap usage to the health response.
func (h *Handlers) SetMemoryReporter(m MemoryReporter) {
	h.mem = m
}

// SetReady marks the service ready once the loader has started.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}
