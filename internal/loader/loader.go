package loader

import (
	"context"
	"sync"
	"time"

	"asset-cache/internal/assets"
	"asset-cache/internal/cache"
	"asset-cache/internal/connectivity"
	"asset-cache/internal/fetch"
	"asset-cache/internal/logging"
	"asset-cache/internal/media"
	"asset-cache/internal/metrics"
	"asset-cache/internal/placeholder"
	"asset-cache/internal/workers"
)

// swatchSize is the edge length of generated placeholder swatches.
const swatchSize = 256

// Config configures a Loader. Zero values select the defaults noted on each
// field.
type Config struct {
	// CacheDir holds the disk tier. Empty means memory only.
	CacheDir string

	// MemoryCountLimit bounds the number of decoded images (default 100).
	MemoryCountLimit int
	// MemoryCostLimit bounds their total cost in bytes (default 50 MiB).
	MemoryCostLimit int64

	// ScreenScale multiplies rewritten provider widths (default 1).
	ScreenScale float64

	// PruneInterval is how often stale disk entries are removed. Zero
	// disables periodic pruning.
	PruneInterval time.Duration
	// PruneMaxAge is the age at which disk entries are pruned (default 7 days).
	PruneMaxAge time.Duration

	// TransferWorkers bounds concurrent downloads (default workers.ForIO(8)).
	TransferWorkers int
	// DiskWorkers bounds concurrent disk operations (default workers.ForIO(4)).
	DiskWorkers int

	// WatchDisk invalidates disk statistics on external changes.
	WatchDisk bool

	// PollInterval is used by the default interface poller.
	PollInterval time.Duration

	// StatsInterval is how often cache statistics are exported as metrics.
	// Zero disables the collector.
	StatsInterval time.Duration
}

// Deps are the collaborators a Loader uses. Nil fields get defaults.
type Deps struct {
	// Transport performs downloads (default fetch.NewHTTPTransport).
	Transport fetch.Transport
	// PathObserver feeds the connectivity monitor (default an InterfacePoller).
	PathObserver connectivity.PathObserver
	// Bundle resolves bundled assets and placeholder images (default
	// generated swatches for every placeholder asset).
	Bundle placeholder.Bundle
	// Power reports low power mode (default never).
	Power media.PowerSource
}

// Statistics describes the cache.
type Statistics struct {
	cache.Stats
	DiskEnabled  bool               `json:"diskEnabled"`
	InFlight     int                `json:"inFlight"`
	Queued       int                `json:"queued"`
	Deferred     int                `json:"deferred"`
	Connectivity connectivity.State `json:"connectivity"`
}

// Loader is the entry point of the asset cache. Create it with New, call
// Start before use and Shutdown when done.
type Loader struct {
	cfg     Config
	store   *cache.Store
	monitor *connectivity.Monitor
	coord   *fetch.Coordinator

	collector *metrics.Collector

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	bg      sync.WaitGroup
	tickets sync.WaitGroup
}

// New builds a Loader. A disk tier that cannot be created is logged and the
// loader runs memory-only.
func New(cfg Config, deps Deps) *Loader {
	if cfg.MemoryCountLimit <= 0 {
		cfg.MemoryCountLimit = 100
	}
	if cfg.MemoryCostLimit <= 0 {
		cfg.MemoryCostLimit = 50 << 20
	}
	if cfg.PruneMaxAge <= 0 {
		cfg.PruneMaxAge = cache.DefaultMaxAge
	}
	if cfg.DiskWorkers <= 0 {
		cfg.DiskWorkers = workers.ForIO(4)
	}
	if deps.Transport == nil {
		deps.Transport = fetch.NewHTTPTransport("asset-cache")
	}
	if deps.PathObserver == nil {
		deps.PathObserver = connectivity.NewInterfacePoller(cfg.PollInterval)
	}
	if deps.Bundle == nil {
		deps.Bundle = assets.Swatches(placeholder.AssetIDs(), swatchSize)
	}

	var disk *cache.DiskTier
	if cfg.CacheDir != "" {
		d, err := cache.NewDiskTier(cfg.CacheDir, cfg.DiskWorkers)
		if err != nil {
			logging.Warn("Loader: disk cache unavailable, running memory-only: %v", err)
		} else {
			disk = d
		}
	}

	store := cache.NewStore(cache.NewMemoryTier(cfg.MemoryCountLimit, cfg.MemoryCostLimit), disk)
	monitor := connectivity.NewMonitor(deps.PathObserver)
	coord := fetch.New(fetch.Config{
		ScreenScale: cfg.ScreenScale,
		Workers:     cfg.TransferWorkers,
	}, store, monitor, deps.Transport, placeholder.NewResolver(deps.Bundle), deps.Bundle, deps.Power)

	l := &Loader{
		cfg:     cfg,
		store:   store,
		monitor: monitor,
		coord:   coord,
	}
	if cfg.StatsInterval > 0 {
		l.collector = metrics.NewCollector(l, cfg.StatsInterval)
	}
	return l
}

// Start begins connectivity observation and the background maintenance.
func (l *Loader) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.started = true
	ctx, l.cancel = context.WithCancel(ctx)
	l.mu.Unlock()

	l.monitor.Start(ctx)

	if disk := l.store.Disk(); disk != nil && l.cfg.WatchDisk {
		if err := disk.Watch(); err != nil {
			logging.Warn("Loader: disk watcher unavailable: %v", err)
		}
	}

	if l.cfg.PruneInterval > 0 && l.store.Disk() != nil {
		l.bg.Add(1)
		go l.pruneLoop(ctx)
	}

	if l.collector != nil {
		l.collector.Start()
	}

	logging.Info("Loader started (memory: %d entries / %d bytes, disk: %v)",
		l.cfg.MemoryCountLimit, l.cfg.MemoryCostLimit, l.store.Disk() != nil)
}

func (l *Loader) pruneLoop(ctx context.Context) {
	defer l.bg.Done()

	ticker := time.NewTicker(l.cfg.PruneInterval)
	defer ticker.Stop()

	for {
		if _, err := l.store.Prune(ctx, l.cfg.PruneMaxAge); err != nil && ctx.Err() == nil {
			logging.Warn("Loader: scheduled prune failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown stops background work, cancels outstanding transfers and waits
// for pending tickets to resolve or ctx to expire.
func (l *Loader) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.bg.Wait()

	l.coord.Shutdown()
	l.monitor.Stop()
	if l.collector != nil {
		l.collector.Stop()
	}
	if disk := l.store.Disk(); disk != nil {
		if err := disk.Close(); err != nil {
			logging.Warn("Loader: failed to close disk watcher: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		l.tickets.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("Loader stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load resolves an image synchronously.
func (l *Loader) Load(ctx context.Context, identifier string, opts ...Option) fetch.Result {
	return l.coord.Load(ctx, newRequest(identifier, opts))
}

// RequestImage resolves an image in the background. The ticket always
// completes with an image.
func (l *Loader) RequestImage(ctx context.Context, identifier string, opts ...Option) *Ticket {
	req := newRequest(identifier, opts)
	ctx, cancel := context.WithCancel(ctx)
	t := &Ticket{
		Identifier: identifier,
		done:       make(chan struct{}),
		cancel:     cancel,
	}

	l.tickets.Add(1)
	go func() {
		defer l.tickets.Done()
		defer cancel()
		t.result = l.coord.Load(ctx, req)
		close(t.done)
	}()
	return t
}

// UpdatePriority escalates an in-flight transfer when high is true. Lowering
// priority is advisory and leaves the transfer untouched. It reports whether
// a transfer was escalated.
func (l *Loader) UpdatePriority(identifier string, high bool) bool {
	if !high {
		logging.Debug("Loader: priority of %s lowered, transfer left as is", identifier)
		return false
	}
	return l.coord.Escalate(identifier)
}

// CancelRequest aborts the transfer and any deferred fetch for identifier.
func (l *Loader) CancelRequest(identifier string) bool {
	return l.coord.Cancel(identifier)
}

// ClearMemoryCache empties the memory tier.
func (l *Loader) ClearMemoryCache() {
	l.store.ClearMemory()
}

// ClearCache empties both tiers.
func (l *Loader) ClearCache(ctx context.Context) {
	l.store.Clear(ctx)
}

// PruneStale removes disk entries unused for at least days days (7 when
// days is not positive).
func (l *Loader) PruneStale(ctx context.Context, days int) (cache.PruneResult, error) {
	maxAge := l.cfg.PruneMaxAge
	if days > 0 {
		maxAge = time.Duration(days) * 24 * time.Hour
	}
	return l.store.Prune(ctx, maxAge)
}

// TrimMemory keeps at most fraction of the memory tier's cost. It is the
// memory pressure hook.
func (l *Loader) TrimMemory(fraction float64) int {
	return l.store.Memory().Trim(fraction)
}

// CacheStatistics reports the cache and transfer state.
func (l *Loader) CacheStatistics(ctx context.Context) Statistics {
	return Statistics{
		Stats:        l.store.Stats(ctx),
		DiskEnabled:  l.store.Disk() != nil,
		InFlight:     l.coord.InFlightCount(),
		Queued:       l.coord.QueuedCount(),
		Deferred:     l.coord.DeferredCount(),
		Connectivity: l.monitor.Current(),
	}
}

// CollectStats implements metrics.StatsProvider.
func (l *Loader) CollectStats() metrics.Stats {
	s := l.CacheStatistics(context.Background())
	return metrics.Stats{
		MemoryEntries:   s.MemoryEntries,
		MemoryBytes:     s.MemoryBytes,
		DiskFiles:       s.DiskFiles,
		DiskBytes:       s.DiskBytes,
		InFlight:        s.InFlight,
		Queued:          s.Queued,
		DeferredPending: s.Deferred,
	}
}

// Connectivity returns the current connectivity state.
func (l *Loader) Connectivity() connectivity.State {
	return l.monitor.Current()
}

// Monitor exposes the connectivity monitor for subscriptions.
func (l *Loader) Monitor() *connectivity.Monitor {
	return l.monitor
}

// Quality returns the encoding policy for the current connection.
func (l *Loader) Quality() media.Quality {
	return l.coord.Quality()
}
