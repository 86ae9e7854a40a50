package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"asset-cache/internal/cache"
	"asset-cache/internal/memory"

	"golang.org/x/term"
)

const (
	// Default timeout for cache operations
	defaultTimeout = 5 * time.Minute
	// Default cache directory path
	defaultCacheDir = "/cache"
	// Default prune age in days
	defaultPruneDays = 7
)

// env is what a command needs from the outside world.
type env struct {
	cacheDir    string
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	interactive bool
}

func main() {
	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}

	os.Exit(run(ctx, os.Args[1:], env{
		cacheDir:    cacheDir,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}))
}

func run(ctx context.Context, args []string, e env) int {
	if len(args) < 1 {
		printUsage(e.stdout)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	disk, err := cache.NewDiskTier(e.cacheDir, 4)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: Failed to open cache directory: %v\n", err)
		fmt.Fprintf(e.stderr, "Make sure CACHE_DIR is set correctly (current: %s)\n", e.cacheDir)
		return 1
	}

	switch command := args[0]; command {
	case "stats":
		return showStats(ctx, disk, e)
	case "prune":
		days := defaultPruneDays
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				fmt.Fprintf(e.stderr, "Error: days must be a positive integer, got %q\n", sanitizeCommand(args[1]))
				return 1
			}
			days = n
		}
		return prune(ctx, disk, days, e)
	case "clear":
		yes := len(args) > 1 && (args[1] == "--yes" || args[1] == "-y")
		return clearCache(ctx, disk, yes, e)
	default:
		fmt.Fprintf(e.stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(e.stdout)
		return 1
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Asset Cache Maintenance")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: cachectl <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  stats          - Show disk cache usage")
	fmt.Fprintf(w, "  prune [days]   - Remove entries unused for days (default: %d)\n", defaultPruneDays)
	fmt.Fprintln(w, "  clear [--yes]  - Remove every cached file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  CACHE_DIR - Path to cache directory (default: %s)\n", defaultCacheDir)
}

func showStats(ctx context.Context, disk *cache.DiskTier, e env) int {
	stats, err := disk.Stats(ctx)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(e.stdout, "Directory: %s\n", disk.Dir())
	fmt.Fprintf(e.stdout, "Files:     %d\n", stats.Files)
	fmt.Fprintf(e.stdout, "Size:      %s\n", memory.FormatBytes(stats.Bytes))
	return 0
}

func prune(ctx context.Context, disk *cache.DiskTier, days int, e env) int {
	res, err := disk.Prune(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: Prune failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(e.stdout, "Removed %d file(s) unused for %d day(s), freed %s.\n",
		res.Removed, days, memory.FormatBytes(res.BytesFreed))
	return 0
}

func clearCache(ctx context.Context, disk *cache.DiskTier, yes bool, e env) int {
	if !yes {
		if !e.interactive {
			fmt.Fprintln(e.stderr, "Error: Refusing to clear without a terminal. Pass --yes to confirm.")
			return 1
		}
		if !confirm(e, fmt.Sprintf("Remove every file in %s? [y/N]: ", disk.Dir())) {
			fmt.Fprintln(e.stdout, "Aborted.")
			return 1
		}
	}

	if err := disk.Clear(ctx); err != nil {
		fmt.Fprintf(e.stderr, "Error: Clear failed: %v\n", err)
		return 1
	}

	fmt.Fprintln(e.stdout, "Cache cleared.")
	return 0
}

func confirm(e env, prompt string) bool {
	fmt.Fprint(e.stdout, prompt)
	line, err := bufio.NewReader(e.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
