package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"asset-cache/internal/cache"
	"asset-cache/internal/connectivity"
	"asset-cache/internal/logging"
	"asset-cache/internal/media"
	"asset-cache/internal/metrics"
	"asset-cache/internal/placeholder"
	"asset-cache/internal/workers"
)

const (
	// ExpensiveTimeout bounds a transfer on an expensive connection.
	ExpensiveTimeout = 15 * time.Second
	// DefaultTimeout bounds every other transfer.
	DefaultTimeout = 30 * time.Second
)

// Request is one image request. Identifier is the cache key; URL is where
// the image is fetched from and defaults to Identifier when that is an
// http(s) URL.
type Request struct {
	Identifier   string
	URL          string
	Category     *placeholder.Category
	Target       media.Size
	HighPriority bool
}

// Source tells where a delivered image came from.
type Source string

const (
	SourceMemory      Source = "memory"
	SourceDisk        Source = "disk"
	SourceBundled     Source = "bundled"
	SourceNetwork     Source = "network"
	SourcePlaceholder Source = "placeholder"
)

// Result is what a request delivers. Image is never nil. Err explains why a
// placeholder was delivered and is informational only.
type Result struct {
	Image   image.Image
	Source  Source
	AssetID string
	Err     error
}

// Connectivity is the part of connectivity.Monitor the coordinator uses.
type Connectivity interface {
	Current() connectivity.State
	WaitForConnected(ctx context.Context) error
}

// Config tunes the coordinator.
type Config struct {
	// ScreenScale multiplies rewritten provider widths.
	ScreenScale float64
	// Workers is the number of concurrent transfers.
	Workers int

	ExpensiveTimeout time.Duration
	DefaultTimeout   time.Duration
}

// Coordinator resolves requests from the cache, the bundle or the network,
// and guarantees at most one transfer per key.
type Coordinator struct {
	cfg       Config
	store     *cache.Store
	conn      Connectivity
	transport Transport
	resolver  *placeholder.Resolver
	bundle    placeholder.Bundle
	power     media.PowerSource
	pool      *workers.Pool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]*task
	deferred map[string]context.CancelFunc
	closed   bool
}

// task is one registered network transfer shared by every waiter on its key.
type task struct {
	key      string
	url      string
	timeout  time.Duration
	quality  media.Quality
	ctx      context.Context
	cancel   context.CancelFunc
	handle   *workers.Handle
	done     chan struct{}
	created  time.Time
	high     bool // guarded by Coordinator.mu
	waiters  int  // guarded by Coordinator.mu
	finished bool // guarded by Coordinator.mu

	// Set before done is closed
	img image.Image
	err error
}

// New creates a coordinator. bundle and power may be nil.
func New(cfg Config, store *cache.Store, conn Connectivity, transport Transport,
	resolver *placeholder.Resolver, bundle placeholder.Bundle, power media.PowerSource) *Coordinator {
	if cfg.ScreenScale <= 0 {
		cfg.ScreenScale = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = workers.ForIO(8)
	}
	if cfg.ExpensiveTimeout <= 0 {
		cfg.ExpensiveTimeout = ExpensiveTimeout
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if power == nil {
		power = media.StaticPower(false)
	}

	ctx, cancel := context.WithCancel(context.Background())
	logging.Debug("FetchCoordinator: %d transfer workers, scale %.1f", cfg.Workers, cfg.ScreenScale)

	return &Coordinator{
		cfg:       cfg,
		store:     store,
		conn:      conn,
		transport: transport,
		resolver:  resolver,
		bundle:    bundle,
		power:     power,
		pool:      workers.NewPool(cfg.Workers),
		ctx:       ctx,
		cancel:    cancel,
		inflight:  make(map[string]*task),
		deferred:  make(map[string]context.CancelFunc),
	}
}

// Quality returns the encoding policy for the current connection.
func (c *Coordinator) Quality() media.Quality {
	return media.QualityFor(c.conn.Current().Type, c.power.LowPower())
}

// Load resolves req. It always returns an image; ctx only bounds how long
// this caller waits.
func (c *Coordinator) Load(ctx context.Context, req Request) Result {
	start := time.Now()
	res := c.load(ctx, req)
	metrics.ImageRequestsTotal.WithLabelValues(string(res.Source)).Inc()
	metrics.ImageRequestDuration.WithLabelValues(string(res.Source)).Observe(time.Since(start).Seconds())
	return res
}

func (c *Coordinator) load(ctx context.Context, req Request) Result {
	key := req.Identifier
	if key == "" {
		return c.placeholderFor(req, false, nil)
	}

	quality := c.Quality()

	if e, tier, ok := c.store.Get(ctx, key, quality.MaxDimension); ok {
		src := SourceMemory
		if tier == cache.TierDisk {
			src = SourceDisk
		}
		logging.Debug("Image %s served from %s", key, src)
		return Result{Image: media.ForDisplay(e.Image, req.Target), Source: src}
	}

	if c.bundle != nil {
		if img, ok := c.bundle.Lookup(key); ok {
			c.store.PutMemory(key, img)
			return Result{Image: media.ForDisplay(img, req.Target), Source: SourceBundled, AssetID: key}
		}
	}

	source := req.URL
	if source == "" && IsRemote(key) {
		source = key
	}
	if source == "" {
		return c.placeholderFor(req, false, nil)
	}

	state := c.conn.Current()
	if !state.Connected {
		c.deferFetch(key, source)
		return c.placeholderFor(req, true, ErrConnectivityUnavailable)
	}

	t, hit := c.register(key, source, req.HighPriority, req.Target.Width, state, quality)
	if hit != nil {
		return Result{Image: media.ForDisplay(hit.Image, req.Target), Source: SourceMemory}
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		c.leave(t)
		return c.placeholderFor(req, true, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
	}

	if t.err != nil {
		return c.placeholderFor(req, true, t.err)
	}
	return Result{Image: media.ForDisplay(t.img, req.Target), Source: SourceNetwork}
}

func (c *Coordinator) placeholderFor(req Request, categoryFirst bool, cause error) Result {
	var ph placeholder.Result
	if categoryFirst {
		ph = c.resolver.ResolveForCategory(req.Category, req.Identifier)
	} else {
		ph = c.resolver.Resolve(req.Identifier, req.Category)
	}
	return Result{
		Image:   media.ForDisplay(ph.Image, req.Target),
		Source:  SourcePlaceholder,
		AssetID: ph.AssetID,
		Err:     cause,
	}
}

// register attaches to the in-flight task for key or starts a new one. If
// the image landed in memory since the caller's lookup, that entry is
// returned instead and no task is involved.
func (c *Coordinator) register(key, source string, high bool, width int, state connectivity.State, quality media.Quality) (*task, *cache.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.inflight[key]; ok {
		t.waiters++
		metrics.TransferDedupTotal.Inc()
		logging.Debug("Transfer for %s already in flight, attaching (waiters=%d)", key, t.waiters)
		if high {
			c.escalateLocked(t)
		}
		return t, nil
	}

	// A transfer that completed after the caller's miss stored first, then
	// left the registry.
	if e, ok := c.store.Memory().Get(key); ok {
		return nil, &e
	}

	url := source
	timeout := c.cfg.DefaultTimeout
	if state.Expensive {
		timeout = c.cfg.ExpensiveTimeout
		if rewritten, ok := RewriteURL(source, width, c.cfg.ScreenScale); ok {
			url = rewritten
			metrics.URLRewritesTotal.Inc()
			logging.Debug("Rewrote %s to %s for expensive connection", source, url)
		}
	}

	ctx, cancel := context.WithCancel(c.ctx)
	t := &task{
		key:     key,
		url:     url,
		timeout: timeout,
		quality: quality,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		created: time.Now(),
		high:    high,
		waiters: 1,
	}
	c.inflight[key] = t

	t.handle = c.pool.Submit(func() { c.run(t) }, high)
	if t.handle == nil {
		// Pool closed during shutdown
		delete(c.inflight, key)
		cancel()
		t.err = fmt.Errorf("%w: coordinator shut down", ErrCancelled)
		t.finished = true
		close(t.done)
	}
	return t, nil
}

func (c *Coordinator) escalateLocked(t *task) {
	if t.high {
		return
	}
	t.high = true
	t.handle.Promote()
	metrics.PriorityEscalationsTotal.Inc()
	logging.Debug("Escalated transfer for %s to high priority", t.key)
}

// leave detaches one waiter. The last waiter to leave an unfinished task
// cancels its transfer.
func (c *Coordinator) leave(t *task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t.waiters--
	if t.waiters > 0 || t.finished {
		return
	}
	if c.inflight[t.key] == t {
		delete(c.inflight, t.key)
	}
	t.cancel()
	c.dropQueuedLocked(t)
	logging.Debug("Transfer for %s cancelled, no waiters left", t.key)
}

// dropQueuedLocked finishes t with ErrCancelled if it is still waiting for a
// worker, releasing its waiters at once. A running transfer is left to
// observe its cancelled context.
func (c *Coordinator) dropQueuedLocked(t *task) {
	if t.finished || !t.handle.Remove() {
		return
	}
	t.err = fmt.Errorf("%w: %s before transfer started", ErrCancelled, t.key)
	t.finished = true
	close(t.done)
	metrics.TransfersTotal.WithLabelValues("cancelled").Inc()
}

// Escalate raises the priority of the in-flight transfer for key. It
// reports whether such a transfer exists.
func (c *Coordinator) Escalate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.inflight[key]
	if !ok {
		return false
	}
	c.escalateLocked(t)
	return true
}

// Cancel aborts the transfer and any deferred fetch for key and removes
// them from the registry. Waiters receive a placeholder.
func (c *Coordinator) Cancel(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	if t, ok := c.inflight[key]; ok {
		delete(c.inflight, key)
		t.cancel()
		c.dropQueuedLocked(t)
		found = true
	}
	if cancel, ok := c.deferred[key]; ok {
		cancel()
		found = true
	}
	if found {
		logging.Debug("Cancelled pending work for %s", key)
	}
	return found
}

// run performs the transfer for t on a pool worker.
func (c *Coordinator) run(t *task) {
	img, err := c.transfer(t)
	if err == nil {
		// Both tiers hold the image before anyone is told about it
		c.store.Put(c.ctx, t.key, img, t.quality.JPEGQuality())
	}

	c.mu.Lock()
	if c.inflight[t.key] == t {
		delete(c.inflight, t.key)
	}
	t.finished = true
	c.mu.Unlock()

	t.img, t.err = img, err
	close(t.done)
	t.cancel()
}

func (c *Coordinator) transfer(t *task) (image.Image, error) {
	if t.ctx.Err() != nil {
		metrics.TransfersTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("%w: %s before transfer started", ErrCancelled, t.key)
	}

	c.mu.Lock()
	high := t.high
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()

	start := time.Now()
	status, body, err := c.transport.Get(ctx, TransferRequest{URL: t.url, Timeout: t.timeout, HighPriority: high})
	metrics.TransferDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil && t.ctx.Err() != nil:
		metrics.TransfersTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("%w: %s: %w", ErrCancelled, t.key, err)
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		metrics.TransfersTotal.WithLabelValues("error_timeout").Inc()
		logging.Warn("Transfer of %s timed out after %v", t.url, t.timeout)
		return nil, fmt.Errorf("%w: %s: timed out after %v", ErrTransferFailed, t.url, t.timeout)
	case err != nil:
		metrics.TransfersTotal.WithLabelValues("error_transport").Inc()
		logging.Warn("Transfer of %s failed: %v", t.url, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrTransferFailed, t.url, err)
	case status != 200:
		metrics.TransfersTotal.WithLabelValues("error_status").Inc()
		logging.Warn("Transfer of %s returned status %d", t.url, status)
		return nil, fmt.Errorf("%w: %s: status %d", ErrTransferFailed, t.url, status)
	}

	img, err := media.Decode(body)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues("error_decode").Inc()
		logging.Warn("Transfer of %s returned undecodable data (%d bytes): %v", t.url, len(body), err)
		return nil, fmt.Errorf("%w: %w: %s: %v", ErrTransferFailed, ErrDecodeFailure, t.url, err)
	}

	metrics.TransfersTotal.WithLabelValues("success").Inc()
	logging.Debug("Fetched %s (%d bytes, %dx%d) in %v",
		t.url, len(body), img.Bounds().Dx(), img.Bounds().Dy(), time.Since(t.created))

	return media.Constrain(img, t.quality.MaxDimension), nil
}

// deferFetch registers a one-shot fetch for key that runs once connectivity
// returns. Its result is stored but not delivered.
func (c *Coordinator) deferFetch(key, source string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.deferred[key]; ok {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.deferred[key] = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	metrics.DeferredPending.Inc()
	logging.Info("Offline: deferred fetch registered for %s", key)

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.deferred, key)
			c.mu.Unlock()
			cancel()
			metrics.DeferredPending.Dec()
		}()

		if err := c.conn.WaitForConnected(ctx); err != nil {
			logging.Debug("Deferred fetch for %s abandoned: %v", key, err)
			metrics.DeferredCompletedTotal.WithLabelValues("dropped").Inc()
			return
		}

		if _, _, ok := c.store.Get(ctx, key, 0); ok {
			metrics.DeferredCompletedTotal.WithLabelValues("stored").Inc()
			return
		}

		t, hit := c.register(key, source, false, 0, c.conn.Current(), c.Quality())
		if hit != nil {
			metrics.DeferredCompletedTotal.WithLabelValues("stored").Inc()
			return
		}

		select {
		case <-t.done:
		case <-ctx.Done():
			c.leave(t)
			metrics.DeferredCompletedTotal.WithLabelValues("dropped").Inc()
			return
		}

		if t.err != nil {
			logging.Warn("Deferred fetch for %s dropped: %v", key, t.err)
			metrics.DeferredCompletedTotal.WithLabelValues("dropped").Inc()
			return
		}
		metrics.DeferredCompletedTotal.WithLabelValues("stored").Inc()
		logging.Info("Deferred fetch for %s stored", key)
	}()
}

// InFlightCount returns the number of registered transfers.
func (c *Coordinator) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// QueuedCount returns the number of transfers waiting for a worker.
func (c *Coordinator) QueuedCount() int {
	return c.pool.Queued()
}

// DeferredCount returns the number of fetches waiting for connectivity.
func (c *Coordinator) DeferredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.deferred)
}

// Shutdown cancels every transfer and deferred fetch and waits for the
// workers to exit.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.pool.Close()
	logging.Info("FetchCoordinator stopped")
}
