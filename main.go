package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asset-cache/internal/assets"
	"asset-cache/internal/filesystem"
	"asset-cache/internal/handlers"
	"asset-cache/internal/loader"
	"asset-cache/internal/logging"
	"asset-cache/internal/media"
	"asset-cache/internal/memory"
	"asset-cache/internal/metrics"
	"asset-cache/internal/middleware"
	"asset-cache/internal/placeholder"
	"asset-cache/internal/startup"
)

const (
	statsInterval   = 30 * time.Second
	shutdownTimeout = 30 * time.Second
	swatchSize      = 256
)

func main() {
	startTime := time.Now()

	// Configure GOMEMLIMIT before anything allocates
	startup.LogMemoryConfig(memory.ConfigureFromEnv())

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	build := startup.GetBuildInfo()
	metrics.SetAppInfo(build.Version, build.Commit, build.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	// Initialize libvips for decode-time shrinking of disk hits
	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips initialization failed: %v", err)
		}
		defer media.ShutdownVips()
	}
	startup.LogVipsInit(config.VipsEnabled, media.IsVipsAvailable())

	// Initialize loader
	startup.LogLoaderInit(config)
	l := loader.New(loaderConfig(config), loader.Deps{
		Bundle: buildBundle(config),
		Power:  media.StaticPower(config.LowPowerMode),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	startup.LogLoaderStarted()

	// Trim the memory tier when the heap approaches GOMEMLIMIT
	memMonitor := memory.NewMonitor(memory.DefaultConfig(), l)
	memMonitor.Start()

	// Initialize handlers and router
	h := handlers.New(l)
	h.SetMemoryReporter(memMonitor)
	router := handlers.NewRouter(h)
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h.MetricsHandler())
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go handleShutdown(done, srv, metricsSrv, l, memMonitor)

	h.SetReady(true)
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// loaderConfig maps application configuration onto the loader.
func loaderConfig(config *startup.Config) loader.Config {
	cfg := loader.Config{
		MemoryCountLimit: config.MemoryCacheCount,
		MemoryCostLimit:  config.MemoryCacheBytes,
		ScreenScale:      config.ScreenScale,
		PruneInterval:    config.PruneInterval,
		PruneMaxAge:      config.PruneMaxAge,
		PollInterval:     config.PollInterval,
	}
	if config.DiskCacheEnabled {
		cfg.CacheDir = config.CacheDir
		cfg.WatchDisk = true
	}
	if config.MetricsEnabled {
		cfg.StatsInterval = statsInterval
	}
	return cfg
}

// buildBundle resolves assets from the assets directory first and falls back
// to generated swatches, so every placeholder asset always resolves.
func buildBundle(config *startup.Config) assets.Chain {
	var chain assets.Chain
	if config.AssetsEnabled {
		chain = append(chain, assets.NewDir(config.AssetsDir))
	}
	return append(chain, assets.Swatches(placeholder.AssetIDs(), swatchSize))
}

func newMetricsServer(port string, handler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleShutdown(done chan<- struct{}, srv, metricsSrv *http.Server, l *loader.Loader, memMonitor *memory.Monitor) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping loader")
	if err := l.Shutdown(ctx); err != nil {
		logging.Warn("Loader shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Loader stopped")
	}

	memMonitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownComplete()
}
