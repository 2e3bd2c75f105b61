package v1handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListComparisons returns the most recent comparisons.
func (h Handler) ListComparisons(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.deps.Comparisons.List(r.Context()))
}

// CreateComparison analyzes the requested target and pins the result.
func (h Handler) CreateComparison(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)

		return
	}

	out, err := h.deps.Analysis.Analyze(r.Context(), req.Query)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	id, err := h.deps.Comparisons.Save(r.Context(), req.Query, out.Result)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	c, ok := h.deps.Comparisons.Get(r.Context(), id)
	if !ok {
		writeJSON(r.Context(), w, http.StatusCreated, map[string]string{"id": id})

		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, c)
}

// DeleteComparison removes a comparison. Unknown ids are ignored.
func (h Handler) DeleteComparison(w http.ResponseWriter, r *http.Request) {
	h.deps.Comparisons.Remove(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
