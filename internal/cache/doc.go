/*
Package cache implements the two-tier image cache.

MemoryTier keeps decoded images in memory, bounded by an entry count and a
total cost (4 bytes per pixel). When an insert breaks either bound the least
recently used entries are evicted. Trim is the hook for memory pressure.

DiskTier keeps one encoded file per key. File names are the key with
path-unsafe characters replaced by underscores:

	https://example.com/a.jpg?w=300  ->  https___example.com_a.jpg_w_300

Reads bump the file's access time, and Prune removes exactly the files whose
last use (the later of access and modification time) is at least the given
age:

	res, err := disk.Prune(ctx, cache.DefaultMaxAge)

Store combines the two: lookups go to memory first, disk hits are decoded at
a reduced size and promoted, and inserts write both tiers before returning.
Disk errors wrap ErrDiskIO and are logged by the Store rather than returned.
*/
package cache
