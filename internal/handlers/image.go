package handlers

import (
	"net/http"
	"strconv"

	"asset-cache/internal/fetch"
	"asset-cache/internal/loader"
	"asset-cache/internal/logging"
	"asset-cache/internal/media"
	"asset-cache/internal/placeholder"
)

const maxTargetDimension = 4096

// GetImage resolves an image through the loader and writes it as JPEG.
// A placeholder is still a 200; X-Image-Source tells the caller which it got.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	var opts []loader.Option

	if c := q.Get("category"); c != "" {
		category, ok := placeholder.ParseCategory(c)
		if !ok {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
		opts = append(opts, loader.WithCategory(category))
	}

	width, err := parseDimension(q.Get("w"))
	if err != nil {
		http.Error(w, "invalid w", http.StatusBadRequest)
		return
	}
	height, err := parseDimension(q.Get("h"))
	if err != nil {
		http.Error(w, "invalid h", http.StatusBadRequest)
		return
	}
	if width > 0 && height > 0 {
		opts = append(opts, loader.WithTargetSize(width, height))
	}

	if p := q.Get("priority"); p != "" {
		high, err := strconv.ParseBool(p)
		if err != nil {
			http.Error(w, "invalid priority", http.StatusBadRequest)
			return
		}
		opts = append(opts, loader.WithPriority(high))
	}

	if u := q.Get("url"); u != "" {
		opts = append(opts, loader.WithURL(u))
	}

	res := h.loader.Load(r.Context(), id, opts...)
	if r.Context().Err() != nil {
		return
	}

	body, err := media.Encode(res.Image, h.loader.Quality().JPEGQuality())
	if err != nil {
		logging.Error("GetImage: failed to encode %s: %v", id, err)
		http.Error(w, "Failed to encode image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("X-Image-Source", string(res.Source))
	if res.AssetID != "" {
		w.Header().Set("X-Placeholder-Asset", res.AssetID)
	}
	if res.Source == fetch.SourcePlaceholder {
		w.Header().Set("Cache-Control", "no-store")
		if res.Err != nil {
			w.Header().Set("X-Image-Error", res.Err.Error())
		}
	} else {
		w.Header().Set("Cache-Control", "private, max-age=3600")
	}

	if _, err := w.Write(body); err != nil {
		logging.Debug("GetImage: write failed for %s: %v", id, err)
	}
}

// CancelImage aborts the in-flight transfer for id.
func (h *Handlers) CancelImage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if !h.loader.CancelRequest(id) {
		writeJSONError(w, "no pending request", http.StatusNotFound)
		return
	}
	writeJSONStatus(w, "cancelled")
}

// UpdatePriority escalates or lowers the priority of a request.
func (h *Handlers) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	high, err := strconv.ParseBool(q.Get("high"))
	if err != nil {
		http.Error(w, "invalid high", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{
		"escalated": h.loader.UpdatePriority(id, high),
	})
}

func parseDimension(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxTargetDimension {
		return 0, strconv.ErrRange
	}
	return n, nil
}
