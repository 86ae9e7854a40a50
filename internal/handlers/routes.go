package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every endpoint on a new router.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Images
	api.HandleFunc("/image", h.GetImage).Methods(http.MethodGet)
	api.HandleFunc("/image", h.CancelImage).Methods(http.MethodDelete)
	api.HandleFunc("/image/priority", h.UpdatePriority).Methods(http.MethodPost)

	// Cache maintenance
	api.HandleFunc("/cache/stats", h.GetCacheStats).Methods(http.MethodGet)
	api.HandleFunc("/cache", h.ClearCache).Methods(http.MethodDelete)
	api.HandleFunc("/cache/memory", h.ClearMemoryCache).Methods(http.MethodDelete)
	api.HandleFunc("/cache/prune", h.PruneCache).Methods(http.MethodPost)

	api.HandleFunc("/connectivity", h.GetConnectivity).Methods(http.MethodGet)

	return r
}
