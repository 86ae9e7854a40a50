package handlers

import (
	"net/http"
	"strconv"

	"asset-cache/internal/connectivity"
	"asset-cache/internal/logging"
)

// GetCacheStats returns the cache statistics.
func (h *Handlers) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.loader.CacheStatistics(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, stats)
}

// ClearCache empties both cache tiers.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.loader.ClearCache(r.Context())
	writeJSONStatus(w, "cleared")
}

// ClearMemoryCache empties the memory tier.
func (h *Handlers) ClearMemoryCache(w http.ResponseWriter, _ *http.Request) {
	h.loader.ClearMemoryCache()
	writeJSONStatus(w, "cleared")
}

// PruneResponse reports what a prune removed.
type PruneResponse struct {
	Days       int   `json:"days"`
	Removed    int   `json:"removed"`
	BytesFreed int64 `json:"bytesFreed"`
}

// PruneCache removes disk entries unused for ?days= days (default 7).
func (h *Handlers) PruneCache(w http.ResponseWriter, r *http.Request) {
	days := 7
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		days = n
	}

	res, err := h.loader.PruneStale(r.Context(), days)
	if err != nil {
		logging.Error("PruneCache: %v", err)
		writeJSONError(w, "prune failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, PruneResponse{Days: days, Removed: res.Removed, BytesFreed: res.BytesFreed})
}

// ConnectivityResponse is the connectivity state with its quality policy.
type ConnectivityResponse struct {
	State        connectivity.State `json:"state"`
	Compression  float64            `json:"compression"`
	MaxDimension int                `json:"maxDimension"`
}

// GetConnectivity returns the current connectivity state and the quality
// policy that follows from it.
func (h *Handlers) GetConnectivity(w http.ResponseWriter, _ *http.Request) {
	quality := h.loader.Quality()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, ConnectivityResponse{
		State:        h.loader.Connectivity(),
		Compression:  quality.Compression,
		MaxDimension: quality.MaxDimension,
	})
}
