package v1handler

import (
	"fmt"
	"net/http"
	"time"

	"ipinsight/pkg/serrors"

	"github.com/go-chi/chi/v5"
)

// ListHistory returns the history, most recent first.
func (h Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.deps.History.History(r.Context()))
}

// DeleteHistory removes one history entry.
func (h Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.deps.History.Delete(r.Context(), id) {
		h.writeError(w, r, serrors.With(serrors.ErrNotFound, "history entry %s not found", id))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CleanResponse reports how many entries a cleanup removed.
type CleanResponse struct {
	Removed int `json:"removed"`
}

// CleanHistory removes entries older than the days parameter.
func (h Handler) CleanHistory(w http.ResponseWriter, r *http.Request) {
	days, ok, err := daysParam(r)
	if err == nil && !ok {
		err = serrors.With(serrors.ErrBadRequest, "days is required")
	}
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, CleanResponse{Removed: h.deps.History.CleanOlderThan(r.Context(), days)})
}

// Statistics returns statistics of the whole history, or of the last days
// days when the parameter is given.
func (h Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	days, ok, err := daysParam(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	if ok {
		writeJSON(r.Context(), w, http.StatusOK, h.deps.History.StatisticsForPeriod(r.Context(), days))

		return
	}
	writeJSON(r.Context(), w, http.StatusOK, h.deps.History.Statistics(r.Context()))
}

// Export downloads statistics, history and comparisons as one JSON document.
func (h Handler) Export(w http.ResponseWriter, r *http.Request) {
	export := h.deps.History.Export(r.Context(), h.deps.Comparisons.List(r.Context()))

	name := fmt.Sprintf("ipinsight-export-%s.json", time.UnixMilli(export.ExportDate).UTC().Format(time.DateOnly))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	writeJSON(r.Context(), w, http.StatusOK, export)
}
