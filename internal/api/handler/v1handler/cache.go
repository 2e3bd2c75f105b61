package v1handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CacheStats describes the cached results.
func (h Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.deps.Cache.Stats(r.Context()))
}

// ClearCache drops every cached result.
func (h Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.deps.Cache.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCached drops the cached result of one query.
func (h Handler) RemoveCached(w http.ResponseWriter, r *http.Request) {
	h.deps.Cache.Remove(r.Context(), chi.URLParam(r, "query"))
	w.WriteHeader(http.StatusNoContent)
}
