package handlers

import (
	"net/http"
	"runtime"
	"time"

	"asset-cache/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	Connected      bool   `json:"connected"`
	ConnectionType string `json:"connectionType"`

	// Cache summary
	MemoryEntries int  `json:"memoryEntries"`
	DiskFiles     int  `json:"diskFileCount"`
	InFlight      int  `json:"inFlight"`
	Queued        int  `json:"queued"`
	Deferred      int  `json:"deferred"`
	DiskCache     bool `json:"diskCache"`

	// Heap usage, present when a memory monitor is attached
	HeapAlloc      int64   `json:"heapAlloc,omitempty"`
	MemoryLimit    int64   `json:"memoryLimit,omitempty"`
	MemoryUsage    float64 `json:"memoryUsage,omitempty"`
	MemoryPressure string  `json:"memoryPressure,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. Being offline is
// degraded, not unhealthy: requests still get placeholders.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.loader.CacheStatistics(r.Context())
	ready := h.ready.Load()

	response := HealthResponse{
		Ready:          ready,
		Version:        startup.Version,
		Uptime:         time.Since(h.startTime).Round(time.Second).String(),
		Connected:      stats.Connectivity.Connected,
		ConnectionType: stats.Connectivity.Type.String(),
		MemoryEntries:  stats.MemoryEntries,
		DiskFiles:      stats.DiskFiles,
		InFlight:       stats.InFlight,
		Queued:         stats.Queued,
		Deferred:       stats.Deferred,
		DiskCache:      stats.DiskEnabled,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
	}

	if h.mem != nil {
		response.HeapAlloc, response.MemoryLimit, response.MemoryUsage = h.mem.GetStats()
		response.MemoryPressure = h.mem.Level().String()
	}

	switch {
	case !ready:
		response.Status = statusStarting
	case !stats.Connectivity.Connected:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if not ready at all
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness check (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.ready.Load() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
