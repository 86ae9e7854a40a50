package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"asset-cache/internal/filesystem"
	"asset-cache/internal/logging"
	"asset-cache/internal/metrics"

	"github.com/djherbis/times"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxAge is how long an unused disk entry is kept.
const DefaultMaxAge = 7 * 24 * time.Hour

const tempPrefix = ".tmp-"

// maxFileName keeps names under NAME_MAX (255 bytes) on common filesystems.
const maxFileName = 200

var unsafeFileChars = strings.NewReplacer(
	"/", "_",
	":", "_",
	"?", "_",
	"&", "_",
	"=", "_",
	" ", "_",
)

// FileName returns the on-disk name for key. The result is always a plain
// file name inside the cache directory: names that would resolve to the
// directory or its parent, or look like temp files, get a "_" prefix, and
// overlong names are truncated with an md5 suffix of the full key.
func FileName(key string) string {
	name := unsafeFileChars.Replace(key)
	switch {
	case name == "", name == ".", name == "..", strings.HasPrefix(name, tempPrefix):
		name = "_" + name
	}
	if len(name) > maxFileName {
		sum := md5.Sum([]byte(key))
		suffix := "-" + hex.EncodeToString(sum[:])
		name = name[:maxFileName-len(suffix)] + suffix
	}
	return name
}

// DiskStats summarizes the disk tier.
type DiskStats struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// PruneResult reports what a prune removed.
type PruneResult struct {
	Removed    int   `json:"removed"`
	BytesFreed int64 `json:"bytesFreed"`
}

// DiskTier stores one encoded file per key in a directory.
type DiskTier struct {
	dir   string
	retry filesystem.RetryConfig
	sem   *semaphore.Weighted
	now   func() time.Time

	statsMu    sync.Mutex
	stats      DiskStats
	statsValid bool
	statsGen   uint64

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
}

// NewDiskTier creates dir if needed and returns a tier that runs at most
// concurrency disk operations at once.
func NewDiskTier(dir string, concurrency int) (*DiskTier, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create cache dir %s: %w", ErrDiskIO, dir, err)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	logging.Debug("Disk cache: dir=%s concurrency=%d", dir, concurrency)
	return &DiskTier{
		dir:   dir,
		retry: filesystem.DefaultRetryConfig(),
		sem:   semaphore.NewWeighted(int64(concurrency)),
		now:   time.Now,
	}, nil
}

// Dir returns the cache directory.
func (d *DiskTier) Dir() string {
	return d.dir
}

// Path returns the file path for key.
func (d *DiskTier) Path(key string) string {
	return filepath.Join(d.dir, FileName(key))
}

func (d *DiskTier) acquire(ctx context.Context) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrDiskIO, err)
	}
	return nil
}

func (d *DiskTier) observe(op string, start time.Time, err error) {
	metrics.DiskOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DiskErrorsTotal.WithLabelValues(op).Inc()
	}
}

// Lookup returns the path of the file for key if it exists and marks it as
// used by bumping its access time.
func (d *DiskTier) Lookup(ctx context.Context, key string) (string, bool, error) {
	if err := d.acquire(ctx); err != nil {
		return "", false, err
	}
	defer d.sem.Release(1)

	start := time.Now()
	path := d.Path(key)
	info, err := filesystem.StatWithRetry(path, d.retry)
	if errors.Is(err, os.ErrNotExist) {
		d.observe("read", start, nil)
		return "", false, nil
	}
	if err != nil {
		d.observe("read", start, err)
		return "", false, fmt.Errorf("%w: stat %s: %w", ErrDiskIO, path, err)
	}
	if !info.Mode().IsRegular() {
		logging.Warn("Disk cache: %s is not a regular file, ignoring", path)
		d.observe("read", start, nil)
		return "", false, nil
	}

	if err := os.Chtimes(path, d.now(), info.ModTime()); err != nil {
		logging.Debug("Disk cache: failed to update access time for %s: %v", path, err)
	}
	d.observe("read", start, nil)
	return path, true, nil
}

// read returns the stored bytes for key.
func (d *DiskTier) read(ctx context.Context, key string) ([]byte, bool, error) {
	path, ok, err := d.Lookup(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	data, err := filesystem.ReadFileWithRetry(path, d.retry)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %w", ErrDiskIO, path, err)
	}
	return data, true, nil
}

// Write atomically replaces the file for key with data.
func (d *DiskTier) Write(ctx context.Context, key string, data []byte) error {
	if err := d.acquire(ctx); err != nil {
		return err
	}
	defer d.sem.Release(1)

	start := time.Now()
	path := d.Path(key)
	err := filesystem.WriteFileAtomic(path, data, d.retry)
	d.observe("write", start, err)
	d.invalidateStats()
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrDiskIO, path, err)
	}
	return nil
}

// Remove deletes the file for key. A missing file is not an error.
func (d *DiskTier) Remove(ctx context.Context, key string) error {
	if err := d.acquire(ctx); err != nil {
		return err
	}
	defer d.sem.Release(1)

	start := time.Now()
	path := d.Path(key)
	err := filesystem.RemoveWithRetry(path, d.retry)
	d.observe("remove", start, err)
	d.invalidateStats()
	if err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrDiskIO, path, err)
	}
	return nil
}

// cacheFiles lists regular cache files, skipping in-progress temp files.
func (d *DiskTier) cacheFiles() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	files := entries[:0]
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		files = append(files, e)
	}
	return files, nil
}

// Clear removes every cache file. It keeps going after individual failures
// and returns the first one.
func (d *DiskTier) Clear(ctx context.Context) error {
	if err := d.acquire(ctx); err != nil {
		return err
	}
	defer d.sem.Release(1)
	defer d.invalidateStats()

	start := time.Now()
	files, err := d.cacheFiles()
	if err != nil {
		d.observe("remove", start, err)
		return fmt.Errorf("%w: list %s: %w", ErrDiskIO, d.dir, err)
	}

	var firstErr error
	for _, f := range files {
		if err := filesystem.RemoveWithRetry(filepath.Join(d.dir, f.Name()), d.retry); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: remove %s: %w", ErrDiskIO, f.Name(), err)
		}
	}
	d.observe("remove", start, firstErr)
	logging.Info("Disk cache: cleared %d files from %s", len(files), d.dir)
	return firstErr
}

// LastUsed returns the later of the access and modification times of the
// file at path.
func LastUsed(path string) (time.Time, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	lastUsed := ts.ModTime()
	if at := ts.AccessTime(); at.After(lastUsed) {
		lastUsed = at
	}
	return lastUsed, nil
}

// Prune removes every file whose last use is at least maxAge ago and leaves
// all others untouched.
func (d *DiskTier) Prune(ctx context.Context, maxAge time.Duration) (PruneResult, error) {
	var result PruneResult

	if err := d.acquire(ctx); err != nil {
		return result, err
	}
	defer d.sem.Release(1)

	start := time.Now()
	files, err := d.cacheFiles()
	if err != nil {
		d.observe("prune", start, err)
		return result, fmt.Errorf("%w: list %s: %w", ErrDiskIO, d.dir, err)
	}

	now := d.now()
	var firstErr error
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}

		path := filepath.Join(d.dir, f.Name())
		lastUsed, err := LastUsed(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) && firstErr == nil {
				firstErr = fmt.Errorf("%w: stat %s: %w", ErrDiskIO, path, err)
			}
			continue
		}
		if now.Sub(lastUsed) < maxAge {
			continue
		}

		info, err := f.Info()
		if err != nil {
			continue
		}
		if err := filesystem.RemoveWithRetry(path, d.retry); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: remove %s: %w", ErrDiskIO, path, err)
			}
			continue
		}
		result.Removed++
		result.BytesFreed += info.Size()
		logging.Debug("Disk cache: pruned %s (last used %s)", f.Name(), lastUsed.Format(time.RFC3339))
	}

	d.observe("prune", start, firstErr)
	d.invalidateStats()

	metrics.PruneRunsTotal.Inc()
	metrics.PruneFilesRemovedTotal.Add(float64(result.Removed))
	metrics.PruneBytesFreedTotal.Add(float64(result.BytesFreed))
	logging.Info("Disk cache: pruned %d files (%d bytes) older than %v", result.Removed, result.BytesFreed, maxAge)

	return result, firstErr
}

// Stats returns the file count and total size, recomputing only after the
// directory changed.
func (d *DiskTier) Stats(ctx context.Context) (DiskStats, error) {
	d.statsMu.Lock()
	if d.statsValid {
		s := d.stats
		d.statsMu.Unlock()
		return s, nil
	}
	gen := d.statsGen
	d.statsMu.Unlock()

	if err := d.acquire(ctx); err != nil {
		return DiskStats{}, err
	}
	defer d.sem.Release(1)

	files, err := d.cacheFiles()
	if err != nil {
		return DiskStats{}, fmt.Errorf("%w: list %s: %w", ErrDiskIO, d.dir, err)
	}

	var s DiskStats
	for _, f := range files {
		info, err := f.Info()
		if err != nil {
			continue
		}
		s.Files++
		s.Bytes += info.Size()
	}

	d.cacheStats(gen, s)
	return s, nil
}

// cacheStats keeps s only if nothing invalidated the stats since gen was read.
func (d *DiskTier) cacheStats(gen uint64, s DiskStats) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	if d.statsGen == gen {
		d.stats = s
		d.statsValid = true
	}
}

func (d *DiskTier) invalidateStats() {
	d.statsMu.Lock()
	d.statsValid = false
	d.statsGen++
	d.statsMu.Unlock()
}

// Watch invalidates the cached statistics whenever another process changes
// the directory. It returns after the watcher is set up; call Close to stop.
func (d *DiskTier) Watch() error {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()

	if d.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(d.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", d.dir, err)
	}
	d.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if strings.HasPrefix(filepath.Base(event.Name), tempPrefix) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
					d.invalidateStats()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("Disk cache: watcher error: %v", err)
				d.invalidateStats()
			}
		}
	}()

	logging.Debug("Disk cache: watching %s for external changes", d.dir)
	return nil
}

// Close stops the directory watcher, if any.
func (d *DiskTier) Close() error {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()

	if d.watcher == nil {
		return nil
	}
	err := d.watcher.Close()
	d.watcher = nil
	return err
}
