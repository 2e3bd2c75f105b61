package v1handler

import (
	"net/http"

	"ipinsight/internal/worker"
)

// MaintenanceResponse is the outcome of a maintenance request. Report is set
// when the maintenance ran inline.
type MaintenanceResponse struct {
	Queued bool           `json:"queued"`
	Report *worker.Report `json:"report,omitempty"`
}

// Maintenance requests a janitor run: queued when the storage has a job
// queue, inline otherwise.
func (h Handler) Maintenance(w http.ResponseWriter, r *http.Request) {
	queued, report, err := worker.Trigger(r.Context(), h.deps.Storage, h.deps.Janitor)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	status := http.StatusOK
	if queued {
		status = http.StatusAccepted
	}
	writeJSON(r.Context(), w, status, MaintenanceResponse{Queued: queued, Report: report})
}
