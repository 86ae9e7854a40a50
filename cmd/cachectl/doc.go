// Command cachectl provides offline maintenance of the asset cache's disk tier.
//
// It supports the following operations:
//   - stats: Show the number of cached files and their total size
//   - prune: Remove entries that have not been used for a number of days
//   - clear: Remove every cached file
//
// Usage:
//
//	cachectl <command>
//
// Commands:
//
//	stats         Display the cache directory, file count and total size.
//
//	prune [days]  Remove files whose last access or modification is at least
//	              days old (default: 7). Prints the count and bytes freed.
//
//	clear [--yes] Remove every file in the cache directory. When stdin is a
//	              terminal the command asks for confirmation; otherwise --yes
//	              is required.
//
// Environment:
//
//	CACHE_DIR - Path to cache directory (default: /cache)
//
// Notes:
//
// cachectl works on the directory directly and can run while the service is
// up. The service's disk watcher notices removed files and refreshes its
// statistics.
package main
