package loader

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"asset-cache/internal/assets"
	"asset-cache/internal/cache"
	"asset-cache/internal/connectivity"
	"asset-cache/internal/fetch"
	"asset-cache/internal/media"
	"asset-cache/internal/placeholder"

	"github.com/disintegration/imaging"
)

const photoURL = "https://cdn.example.com/photos/soup.jpg"

type staticObserver struct {
	path connectivity.Path
}

func (o staticObserver) Sample() (connectivity.Path, error) {
	return o.path, nil
}

func (o staticObserver) Observe(ctx context.Context, update func(connectivity.Path)) error {
	<-ctx.Done()
	return nil
}

type gatedTransport struct {
	mu      sync.Mutex
	calls   int
	gate    chan struct{}
	started chan struct{}
	body    []byte
}

func newGatedTransport(t *testing.T, gated bool) *gatedTransport {
	t.Helper()
	body, err := media.Encode(imaging.New(40, 40, color.NRGBA{G: 160, A: 255}), 90)
	if err != nil {
		t.Fatal(err)
	}
	tr := &gatedTransport{body: body, started: make(chan struct{}, 8)}
	if gated {
		tr.gate = make(chan struct{})
	}
	return tr
}

func (g *gatedTransport) Get(ctx context.Context, req fetch.TransferRequest) (int, []byte, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	select {
	case g.started <- struct{}{}:
	default:
	}
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		}
	}
	return 200, g.body, nil
}

func (g *gatedTransport) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestLoader(t *testing.T, path connectivity.Path, tr fetch.Transport, cfg Config) *Loader {
	t.Helper()
	if cfg.CacheDir == "" {
		cfg.CacheDir = t.TempDir()
	}
	l := New(cfg, Deps{
		Transport:    tr,
		PathObserver: staticObserver{path: path},
		Bundle:       assets.Swatches(placeholder.AssetIDs(), 8),
	})
	l.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})
	return l
}

var (
	wifi    = connectivity.Path{Satisfied: true, Interfaces: []connectivity.Type{connectivity.TypeWiFi}}
	offline = connectivity.Path{}
)

func TestRequestImageFromNetwork(t *testing.T) {
	tr := newGatedTransport(t, false)
	l := newTestLoader(t, wifi, tr, Config{})

	ticket := l.RequestImage(context.Background(), photoURL, WithTargetSize(20, 10))
	res := ticket.Wait()

	if res.Source != fetch.SourceNetwork {
		t.Fatalf("Source = %s, want network (err %v)", res.Source, res.Err)
	}
	if b := res.Image.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("image = %dx%d, want 20x10", b.Dx(), b.Dy())
	}
	if _, ok := ticket.Result(); !ok {
		t.Error("Result() not available after Wait")
	}

	stats := l.CacheStatistics(context.Background())
	if stats.MemoryEntries != 1 || stats.DiskFiles != 1 {
		t.Errorf("stats = %+v, want one entry in each tier", stats.Stats)
	}
	if !stats.Connectivity.Connected || stats.Connectivity.Type != connectivity.TypeWiFi {
		t.Errorf("Connectivity = %+v, want connected wifi", stats.Connectivity)
	}

	again := l.Load(context.Background(), photoURL)
	if again.Source != fetch.SourceMemory {
		t.Errorf("second load Source = %s, want memory", again.Source)
	}
	if tr.count() != 1 {
		t.Errorf("transfers = %d, want 1", tr.count())
	}
}

func TestRequestImageOfflineDefers(t *testing.T) {
	tr := newGatedTransport(t, false)
	l := newTestLoader(t, offline, tr, Config{})

	res := l.RequestImage(context.Background(), photoURL, WithCategory(placeholder.Soup)).Wait()
	if res.Source != fetch.SourcePlaceholder || res.AssetID != "placeholder_soup" {
		t.Fatalf("result = %s/%s, want placeholder_soup", res.Source, res.AssetID)
	}
	if !errors.Is(res.Err, fetch.ErrConnectivityUnavailable) {
		t.Errorf("Err = %v, want ErrConnectivityUnavailable", res.Err)
	}
	if got := l.CacheStatistics(context.Background()).Deferred; got != 1 {
		t.Fatalf("Deferred = %d, want 1", got)
	}

	if !l.CancelRequest(photoURL) {
		t.Error("CancelRequest() = false, want true")
	}
	deadline := time.Now().Add(3 * time.Second)
	for l.CacheStatistics(context.Background()).Deferred != 0 {
		if time.Now().After(deadline) {
			t.Fatal("deferred fetch not cancelled")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if tr.count() != 0 {
		t.Errorf("transfers = %d, want 0", tr.count())
	}
}

func TestDeferredFetchRunsOnReconnect(t *testing.T) {
	tr := newGatedTransport(t, false)
	l := newTestLoader(t, offline, tr, Config{})

	l.Load(context.Background(), photoURL)
	l.Monitor().Update(wifi)

	deadline := time.Now().Add(3 * time.Second)
	for !l.store.Memory().Contains(photoURL) {
		if time.Now().After(deadline) {
			t.Fatal("deferred fetch did not populate the cache")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if res := l.Load(context.Background(), photoURL); res.Source != fetch.SourceMemory {
		t.Errorf("Source = %s, want memory", res.Source)
	}
}

func TestTicketCancel(t *testing.T) {
	tr := newGatedTransport(t, true)
	l := newTestLoader(t, wifi, tr, Config{})

	ticket := l.RequestImage(context.Background(), photoURL, WithCategory(placeholder.Dinner))
	select {
	case <-tr.started:
	case <-time.After(3 * time.Second):
		t.Fatal("transfer did not start")
	}

	ticket.Cancel()
	select {
	case <-ticket.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("ticket did not complete after Cancel")
	}

	res := ticket.Wait()
	if res.Source != fetch.SourcePlaceholder {
		t.Errorf("Source = %s, want placeholder", res.Source)
	}
	if !errors.Is(res.Err, fetch.ErrCancelled) {
		t.Errorf("Err = %v, want ErrCancelled", res.Err)
	}
}

func TestUpdatePriority(t *testing.T) {
	tr := newGatedTransport(t, true)
	l := newTestLoader(t, wifi, tr, Config{})

	if l.UpdatePriority(photoURL, true) {
		t.Error("UpdatePriority() = true with nothing in flight")
	}

	ticket := l.RequestImage(context.Background(), photoURL)
	select {
	case <-tr.started:
	case <-time.After(3 * time.Second):
		t.Fatal("transfer did not start")
	}

	if !l.UpdatePriority(photoURL, true) {
		t.Error("UpdatePriority(high) = false, want true")
	}
	if l.UpdatePriority(photoURL, false) {
		t.Error("UpdatePriority(low) = true, want false")
	}

	close(tr.gate)
	if res := ticket.Wait(); res.Source != fetch.SourceNetwork {
		t.Errorf("Source = %s, want network", res.Source)
	}
}

func TestClearCaches(t *testing.T) {
	tr := newGatedTransport(t, false)
	l := newTestLoader(t, wifi, tr, Config{})
	ctx := context.Background()

	l.Load(ctx, photoURL)

	l.ClearMemoryCache()
	stats := l.CacheStatistics(ctx)
	if stats.MemoryEntries != 0 || stats.DiskFiles != 1 {
		t.Fatalf("after ClearMemoryCache stats = %+v", stats.Stats)
	}
	if res := l.Load(ctx, photoURL); res.Source != fetch.SourceDisk {
		t.Errorf("Source = %s, want disk", res.Source)
	}

	l.ClearCache(ctx)
	stats = l.CacheStatistics(ctx)
	if stats.MemoryEntries != 0 || stats.DiskFiles != 0 {
		t.Errorf("after ClearCache stats = %+v", stats.Stats)
	}
}

func TestPruneStale(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, wifi, newGatedTransport(t, false), Config{CacheDir: dir})
	ctx := context.Background()

	write := func(name string, age time.Duration) {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("12345"), 0o644); err != nil {
			t.Fatal(err)
		}
		ts := time.Now().Add(-age)
		if err := os.Chtimes(p, ts, ts); err != nil {
			t.Fatal(err)
		}
	}
	write("old", 8*24*time.Hour)
	write("middle", 4*24*time.Hour)
	write("fresh", time.Hour)

	res, err := l.PruneStale(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Removed != 2 {
		t.Errorf("PruneStale(3) removed %d, want 2", res.Removed)
	}

	write("old", 8*24*time.Hour)
	res, err = l.PruneStale(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Removed != 1 {
		t.Errorf("PruneStale(0) removed %d, want 1", res.Removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh")); err != nil {
		t.Errorf("fresh file removed: %v", err)
	}
}

func TestTrimMemory(t *testing.T) {
	l := newTestLoader(t, wifi, newGatedTransport(t, false), Config{})
	for _, k := range []string{"a", "b", "c", "d"} {
		l.store.PutMemory(k, imaging.New(10, 10, color.White))
	}

	if n := l.TrimMemory(0.5); n != 2 {
		t.Errorf("TrimMemory(0.5) = %d, want 2", n)
	}
	if n := l.TrimMemory(0); n != 2 {
		t.Errorf("TrimMemory(0) = %d, want 2", n)
	}
}

func TestCollectStats(t *testing.T) {
	l := newTestLoader(t, wifi, newGatedTransport(t, false), Config{})
	l.Load(context.Background(), photoURL)

	s := l.CollectStats()
	if s.MemoryEntries != 1 || s.DiskFiles != 1 || s.InFlight != 0 {
		t.Errorf("CollectStats() = %+v", s)
	}
}

func TestNewFallsBackToMemoryOnly(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	l := newTestLoader(t, wifi, newGatedTransport(t, false), Config{CacheDir: filepath.Join(file, "cache")})
	if l.store.Disk() != nil {
		t.Fatal("disk tier created under a regular file")
	}

	if res := l.Load(context.Background(), photoURL); res.Source != fetch.SourceNetwork {
		t.Errorf("Source = %s, want network", res.Source)
	}
	res, err := l.PruneStale(context.Background(), 1)
	if err != nil || res != (cache.PruneResult{}) {
		t.Errorf("PruneStale() = %+v, %v", res, err)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	l := New(Config{}, Deps{PathObserver: staticObserver{path: wifi}, Transport: newGatedTransport(t, false)})
	l.Start(context.Background())

	ctx := context.Background()
	if err := l.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	res := l.Load(ctx, photoURL)
	if res.Image == nil {
		t.Error("Load after Shutdown returned no image")
	}
}
