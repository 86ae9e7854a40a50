package cache

import (
	"context"
	"errors"
	"image"
	"time"

	"asset-cache/internal/logging"
	"asset-cache/internal/media"
)

// Tier identifies where a cache hit came from.
type Tier int

const (
	TierMemory Tier = iota
	TierDisk
)

func (t Tier) String() string {
	if t == TierDisk {
		return "disk"
	}
	return "memory"
}

// Stats combines both tiers.
type Stats struct {
	MemoryEntries    int   `json:"memoryEntries"`
	MemoryBytes      int64 `json:"memoryBytes"`
	MemoryLimitCount int   `json:"memoryLimitCount"`
	MemoryLimitBytes int64 `json:"memoryLimitBytes"`
	DiskFiles        int   `json:"diskFileCount"`
	DiskBytes        int64 `json:"diskBytes"`
}

// Store is the two-tier image cache. The disk tier is optional; without it
// the store is memory only. Disk failures are logged and never returned
// from lookups or inserts.
type Store struct {
	memory *MemoryTier
	disk   *DiskTier
}

// NewStore combines a memory tier with an optional disk tier.
func NewStore(memory *MemoryTier, disk *DiskTier) *Store {
	return &Store{memory: memory, disk: disk}
}

// Memory returns the memory tier.
func (s *Store) Memory() *MemoryTier {
	return s.memory
}

// Disk returns the disk tier, or nil.
func (s *Store) Disk() *DiskTier {
	return s.disk
}

// Get looks key up in memory and then on disk. A disk hit is decoded with
// neither side above maxDimension and promoted into memory.
func (s *Store) Get(ctx context.Context, key string, maxDimension int) (Entry, Tier, bool) {
	if e, ok := s.memory.Get(key); ok {
		return e, TierMemory, true
	}
	if s.disk == nil {
		return Entry{}, TierMemory, false
	}

	path, ok, err := s.disk.Lookup(ctx, key)
	if err != nil {
		logDiskError("lookup", key, err)
		return Entry{}, TierDisk, false
	}
	if !ok {
		return Entry{}, TierDisk, false
	}

	img, err := media.Downsample(path, maxDimension)
	if err != nil {
		logging.Warn("Cache: discarding undecodable disk entry %s: %v", key, err)
		if err := s.disk.Remove(ctx, key); err != nil {
			logDiskError("remove", key, err)
		}
		return Entry{}, TierDisk, false
	}

	cost := media.Cost(img)
	s.memory.Put(key, img, cost)
	logging.Debug("Cache: promoted %s from disk (%dx%d)", key, img.Bounds().Dx(), img.Bounds().Dy())

	return Entry{Key: key, Image: img, Cost: cost, LastAccess: time.Now()}, TierDisk, true
}

// Put stores img in memory and writes it to disk encoded at quality (1-100).
// Both writes have finished when Put returns.
func (s *Store) Put(ctx context.Context, key string, img image.Image, quality int) {
	s.memory.Put(key, img, media.Cost(img))
	if s.disk == nil {
		return
	}

	data, err := media.Encode(img, quality)
	if err != nil {
		logging.Warn("Cache: failed to encode %s for disk: %v", key, err)
		return
	}
	if err := s.disk.Write(ctx, key, data); err != nil {
		logDiskError("write", key, err)
	}
}

// PutMemory stores img in the memory tier only.
func (s *Store) PutMemory(key string, img image.Image) {
	s.memory.Put(key, img, media.Cost(img))
}

// Remove drops key from both tiers.
func (s *Store) Remove(ctx context.Context, key string) {
	s.memory.Remove(key)
	if s.disk != nil {
		if err := s.disk.Remove(ctx, key); err != nil {
			logDiskError("remove", key, err)
		}
	}
}

// ClearMemory empties the memory tier.
func (s *Store) ClearMemory() {
	s.memory.Clear()
	logging.Info("Cache: memory tier cleared")
}

// Clear empties both tiers.
func (s *Store) Clear(ctx context.Context) {
	s.ClearMemory()
	if s.disk != nil {
		if err := s.disk.Clear(ctx); err != nil {
			logDiskError("clear", "*", err)
		}
	}
}

// Prune removes disk entries unused for at least maxAge. Without a disk
// tier it does nothing.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (PruneResult, error) {
	if s.disk == nil {
		return PruneResult{}, nil
	}
	return s.disk.Prune(ctx, maxAge)
}

// Stats reports both tiers. Disk figures are zero when the disk tier is
// missing or unreadable.
func (s *Store) Stats(ctx context.Context) Stats {
	countLimit, costLimit := s.memory.Limits()
	st := Stats{
		MemoryEntries:    s.memory.Len(),
		MemoryBytes:      s.memory.Cost(),
		MemoryLimitCount: countLimit,
		MemoryLimitBytes: costLimit,
	}
	if s.disk != nil {
		ds, err := s.disk.Stats(ctx)
		if err != nil {
			logDiskError("stats", "*", err)
		}
		st.DiskFiles = ds.Files
		st.DiskBytes = ds.Bytes
	}
	return st
}

func logDiskError(op, key string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logging.Debug("Cache: disk %s for %s abandoned: %v", op, key, err)
		return
	}
	logging.Warn("Cache: disk %s failed for %s, continuing memory-only: %v", op, key, err)
}
