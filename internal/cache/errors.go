package cache

import "errors"

// ErrDiskIO marks a failed read, write, remove or prune on the disk tier.
// The Store logs and swallows it; the memory tier keeps serving.
var ErrDiskIO = errors.New("disk cache I/O failure")
