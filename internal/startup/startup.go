package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"asset-cache/internal/logging"
	"asset-cache/internal/memory"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	CacheDir        string
	AssetsDir       string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	MemoryCacheCount int
	MemoryCacheBytes int64

	PruneInterval time.Duration
	PruneMaxAge   time.Duration

	ScreenScale  float64
	LowPowerMode bool
	PollInterval time.Duration
	VipsEnabled  bool

	// Feature flags based on directory availability
	DiskCacheEnabled bool
	AssetsEnabled    bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	logging.Info("  CACHE_DIR:                  %s", cfg.CacheDir)
	logging.Info("  ASSETS_DIR:                 %s", cfg.AssetsDir)
	logging.Info("  PORT:                       %s", cfg.Port)
	logging.Info("  METRICS_PORT:               %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:            %v", cfg.MetricsEnabled)
	logging.Info("  MEMORY_CACHE_COUNT:         %d", cfg.MemoryCacheCount)
	logging.Info("  MEMORY_CACHE_BYTES:         %s", memory.FormatBytes(cfg.MemoryCacheBytes))
	logging.Info("  PRUNE_INTERVAL:             %s", cfg.PruneInterval)
	logging.Info("  PRUNE_MAX_AGE_DAYS:         %.0f", cfg.PruneMaxAge.Hours()/24)
	logging.Info("  SCREEN_SCALE:               %.1f", cfg.ScreenScale)
	logging.Info("  LOW_POWER_MODE:             %v", cfg.LowPowerMode)
	logging.Info("  CONNECTIVITY_POLL_INTERVAL: %s", cfg.PollInterval)
	logging.Info("  VIPS_ENABLED:               %v", cfg.VipsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:          %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:                  %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Cache directory (absolute):  %s", cfg.CacheDir)
	logging.Info("  Assets directory (absolute): %s", cfg.AssetsDir)

	// The disk tier is optional; without it the cache runs memory-only
	cfg.DiskCacheEnabled = setupOptionalDir(cfg.CacheDir, "disk cache")

	if err := ensureDirectory(cfg.AssetsDir, "assets"); err != nil {
		logging.Warn("  Assets directory issue: %v", err)
		logging.Warn("  Generated placeholder swatches will be used")
	} else {
		cfg.AssetsEnabled = true
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Disk cache:     %s", enabledString(cfg.DiskCacheEnabled))
	logging.Info("    Bundled assets: %s", enabledString(cfg.AssetsEnabled))
	logging.Info("    Metrics:        %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

// configFromEnv reads the environment without touching the filesystem.
func configFromEnv() (*Config, error) {
	cacheDir, err := filepath.Abs(getEnv("CACHE_DIR", "/cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	assetsDir, err := filepath.Abs(getEnv("ASSETS_DIR", "/assets"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets directory path: %w", err)
	}

	cfg := &Config{
		CacheDir:         cacheDir,
		AssetsDir:        assetsDir,
		Port:             getEnv("PORT", "8080"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", true),
		MemoryCacheCount: getEnvInt("MEMORY_CACHE_COUNT", 100),
		PruneInterval:    getEnvDuration("PRUNE_INTERVAL", 24*time.Hour),
		PruneMaxAge:      time.Duration(getEnvInt("PRUNE_MAX_AGE_DAYS", 7)) * 24 * time.Hour,
		ScreenScale:      getEnvFloat("SCREEN_SCALE", 2),
		LowPowerMode:     getEnvBool("LOW_POWER_MODE", false),
		PollInterval:     getEnvDuration("CONNECTIVITY_POLL_INTERVAL", 5*time.Second),
		VipsEnabled:      getEnvBool("VIPS_ENABLED", false),
	}

	cfg.MemoryCacheBytes = int64(getEnvInt("MEMORY_CACHE_BYTES", 0))
	if cfg.MemoryCacheBytes <= 0 {
		ratio := getEnvFloat("CACHE_MEMORY_RATIO", memory.DefaultCacheMemoryRatio)
		cfg.MemoryCacheBytes = memory.MemoryTierBudget(memory.CurrentLimit(), ratio)
	}

	return cfg, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogMemoryConfig logs the result of memory.ConfigureFromEnv
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !result.Configured {
		logging.Info("  GOMEMLIMIT: not configured (source: %s)", result.Source)
		return
	}

	logging.Info("  GOMEMLIMIT:      %s (source: %s)", memory.FormatBytes(result.GoMemLimit), result.Source)
	if result.ContainerLimit > 0 {
		logging.Info("  Container limit: %s (ratio %.2f)", memory.FormatBytes(result.ContainerLimit), result.Ratio)
	}
}

// LogVipsInit logs libvips initialization
func LogVipsInit(requested, available bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMAGE PROCESSING")
	logging.Info("------------------------------------------------------------")

	switch {
	case !requested:
		logging.Info("  libvips disabled, using pure Go decoding")
	case available:
		logging.Info("  [OK] libvips available for disk-hit downsampling")
	default:
		logging.Warn("  libvips requested but unavailable, using pure Go decoding")
	}
}

// LogLoaderInit logs the cache configuration handed to the loader
func LogLoaderInit(cfg *Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CACHE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Memory tier: %d entries, %s", cfg.MemoryCacheCount, memory.FormatBytes(cfg.MemoryCacheBytes))
	if cfg.DiskCacheEnabled {
		logging.Info("  Disk tier:   %s (prune every %s, max age %s)", cfg.CacheDir, cfg.PruneInterval, cfg.PruneMaxAge)
	} else {
		logging.Info("  Disk tier:   DISABLED (memory-only)")
	}
}

// LogLoaderStarted logs successful loader start
func LogLoaderStarted() {
	logging.Info("  [OK] Loader started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ___                   __     ______           __
   /   |  _____________  / /_   / ____/___ ______/ /_  ___
  / /| | / ___/ ___/ _ \/ __/  / /   / __ '/ ___/ __ \/ _ \
 / ___ |(__  |__  )  __/ /_   / /___/ /_/ / /__/ / / /  __/
/_/  |_/____/____/\___/\__/   \____/\__,_/\___/_/ /_/\___/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    Contents: %d entries (top level)", len(entries))
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid %s %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
