package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"asset-cache/internal/placeholder"
	"asset-cache/internal/startup"
)

func TestLoaderConfig(t *testing.T) {
	tests := []struct {
		name          string
		config        startup.Config
		wantCacheDir  string
		wantWatch     bool
		wantStatsTick time.Duration
	}{
		{
			name:          "disk and metrics enabled",
			config:        startup.Config{CacheDir: "/cache", DiskCacheEnabled: true, MetricsEnabled: true},
			wantCacheDir:  "/cache",
			wantWatch:     true,
			wantStatsTick: statsInterval,
		},
		{
			name:   "disk unavailable runs memory only",
			config: startup.Config{CacheDir: "/cache", DiskCacheEnabled: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.MemoryCacheCount = 42
			tt.config.PruneMaxAge = 3 * 24 * time.Hour
			got := loaderConfig(&tt.config)

			if got.CacheDir != tt.wantCacheDir {
				t.Errorf("CacheDir = %q, want %q", got.CacheDir, tt.wantCacheDir)
			}
			if got.WatchDisk != tt.wantWatch {
				t.Errorf("WatchDisk = %v, want %v", got.WatchDisk, tt.wantWatch)
			}
			if got.StatsInterval != tt.wantStatsTick {
				t.Errorf("StatsInterval = %v, want %v", got.StatsInterval, tt.wantStatsTick)
			}
			if got.MemoryCountLimit != 42 || got.PruneMaxAge != 3*24*time.Hour {
				t.Errorf("limits not carried over: %+v", got)
			}
		})
	}
}

func TestBuildBundle(t *testing.T) {
	dir := t.TempDir()
	// Invalid image data: the directory lookup misses and the swatch answers.
	if err := os.WriteFile(filepath.Join(dir, placeholder.AssetIDs()[0]+".png"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	without := buildBundle(&startup.Config{})
	if len(without) != 1 {
		t.Fatalf("chain length = %d, want 1", len(without))
	}

	with := buildBundle(&startup.Config{AssetsEnabled: true, AssetsDir: dir})
	if len(with) != 2 {
		t.Fatalf("chain length = %d, want 2", len(with))
	}

	for _, id := range placeholder.AssetIDs() {
		if _, ok := with.Lookup(id); !ok {
			t.Errorf("placeholder asset %q does not resolve", id)
		}
	}
}

func TestNewMetricsServer(t *testing.T) {
	srv := newMetricsServer("9999", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	if srv.Addr != ":9999" {
		t.Errorf("Addr = %q", srv.Addr)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/metrics", http.StatusTeapot},
		{"/api/image", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
		if w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}
