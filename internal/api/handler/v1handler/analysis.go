package v1handler

import (
	"fmt"
	"net/http"
	"strconv"

	"ipinsight/pkg/report"
	"ipinsight/pkg/target"

	"github.com/go-chi/chi/v5"
)

// AnalyzeRequest is the body of POST /v1/analyses.
type AnalyzeRequest struct {
	Query string `json:"query"`
}

// Analyze runs an analysis of the requested target.
func (h Handler) Analyze(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(r.Context(), w, http.StatusOK, out)
}

// Validate explains whether the q parameter is an acceptable target.
func (h Handler) Validate(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, target.Validate(r.URL.Query().Get("q")))
}

// Report renders the analysis of a target as a PDF download.
func (h Handler) Report(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	out, err := h.deps.Analysis.Analyze(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	pdf, err := h.deps.Reports.Generate(query, out.Result)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("could not render report: %w", err))

		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.FileName(query, out.Result.Time())))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
