package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/desertthunder/colorize/internal/preview"
	"github.com/go-chi/chi/v5"
)

// PreviewHandler serves live preview blobs by id.
type PreviewHandler struct {
	store *preview.Store
}

// NewPreviewHandler creates a handler over store.
func NewPreviewHandler(store *preview.Store) *PreviewHandler {
	return &PreviewHandler{store: store}
}

// Routes returns the HTTP routes this handler serves.
func (h *PreviewHandler) Routes() []string {
	return []string{"/preview/{id}"}
}

// ServeHTTP writes the blob bytes, or 404 once the reference has been revoked.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	blob, err := h.store.Lookup(id)
	if errors.Is(err, preview.ErrRevoked) {
		http.Error(w, "Preview not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", blob.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Content)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		w.Write(blob.Content)
	}
}
