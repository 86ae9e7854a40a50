package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"asset-cache/internal/memory"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	// Check that all fields are populated
	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	// Verify that runtime values are correct
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Returns empty string when env var is empty",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				// Ensure the variable is not set
				os.Unsetenv(tt.key)
				t.Cleanup(func() {
					os.Unsetenv(tt.key)
				})
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CACHE_DIR", "ASSETS_DIR", "PORT", "METRICS_PORT", "METRICS_ENABLED",
		"LOG_HEALTH_CHECKS", "MEMORY_CACHE_COUNT", "MEMORY_CACHE_BYTES",
		"CACHE_MEMORY_RATIO", "PRUNE_INTERVAL", "PRUNE_MAX_AGE_DAYS",
		"SCREEN_SCALE", "LOW_POWER_MODE", "CONNECTIVITY_POLL_INTERVAL", "VIPS_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := configFromEnv()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.CacheDir != "/cache" || cfg.AssetsDir != "/assets" {
		t.Errorf("dirs = %s, %s", cfg.CacheDir, cfg.AssetsDir)
	}
	if cfg.Port != "8080" || cfg.MetricsPort != "9090" || !cfg.MetricsEnabled {
		t.Errorf("ports = %s/%s metrics=%v", cfg.Port, cfg.MetricsPort, cfg.MetricsEnabled)
	}
	if cfg.MemoryCacheCount != 100 {
		t.Errorf("MemoryCacheCount = %d, want 100", cfg.MemoryCacheCount)
	}
	if want := memory.MemoryTierBudget(memory.CurrentLimit(), memory.DefaultCacheMemoryRatio); cfg.MemoryCacheBytes != want {
		t.Errorf("MemoryCacheBytes = %d, want %d", cfg.MemoryCacheBytes, want)
	}
	if cfg.PruneInterval != 24*time.Hour || cfg.PruneMaxAge != 7*24*time.Hour {
		t.Errorf("prune = every %s, max age %s", cfg.PruneInterval, cfg.PruneMaxAge)
	}
	if cfg.ScreenScale != 2 || cfg.LowPowerMode || cfg.VipsEnabled {
		t.Errorf("scale=%v lowPower=%v vips=%v", cfg.ScreenScale, cfg.LowPowerMode, cfg.VipsEnabled)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %s, want 5s", cfg.PollInterval)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CACHE_DIR", "/tmp/images")
	t.Setenv("MEMORY_CACHE_COUNT", "20")
	t.Setenv("MEMORY_CACHE_BYTES", "1048576")
	t.Setenv("PRUNE_MAX_AGE_DAYS", "3")
	t.Setenv("SCREEN_SCALE", "3")
	t.Setenv("LOW_POWER_MODE", "true")
	t.Setenv("PRUNE_INTERVAL", "1h")

	cfg, err := configFromEnv()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.CacheDir != "/tmp/images" {
		t.Errorf("CacheDir = %s", cfg.CacheDir)
	}
	if cfg.MemoryCacheCount != 20 || cfg.MemoryCacheBytes != 1<<20 {
		t.Errorf("memory tier = %d entries, %d bytes", cfg.MemoryCacheCount, cfg.MemoryCacheBytes)
	}
	if cfg.PruneMaxAge != 3*24*time.Hour || cfg.PruneInterval != time.Hour {
		t.Errorf("prune = every %s, max age %s", cfg.PruneInterval, cfg.PruneMaxAge)
	}
	if cfg.ScreenScale != 3 || !cfg.LowPowerMode {
		t.Errorf("scale=%v lowPower=%v", cfg.ScreenScale, cfg.LowPowerMode)
	}
}

func TestLoadConfigDirectories(t *testing.T) {
	clearConfigEnv(t)
	root := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(root, "cache"))
	t.Setenv("ASSETS_DIR", filepath.Join(root, "missing-assets"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.DiskCacheEnabled {
		t.Error("DiskCacheEnabled = false, want true")
	}
	if cfg.AssetsEnabled {
		t.Error("AssetsEnabled = true for a missing directory")
	}
	if _, err := os.Stat(filepath.Join(root, "cache")); err != nil {
		t.Errorf("cache dir not created: %v", err)
	}

	if err := os.Mkdir(filepath.Join(root, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ASSETS_DIR", filepath.Join(root, "assets"))
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.AssetsEnabled {
		t.Error("AssetsEnabled = false for an existing directory")
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.HandleFunc("/health", noop).Methods("GET")
	r.HandleFunc("/api/cache", noop).Methods("DELETE").Name("clearCache")
	r.PathPrefix("/static/").HandlerFunc(noop)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatal(err)
	}

	want := []RouteInfo{
		{Method: "GET", Path: "/health"},
		{Method: "DELETE", Path: "/api/cache", Name: "clearCache"},
		{Method: "*", Path: "/static/"},
	}
	if len(routes) != len(want) {
		t.Fatalf("routes = %+v", routes)
	}
	for i := range want {
		if routes[i] != want[i] {
			t.Errorf("routes[%d] = %+v, want %+v", i, routes[i], want[i])
		}
	}
}
