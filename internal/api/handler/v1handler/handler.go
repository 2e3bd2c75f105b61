// Package v1handler implements the v1 JSON API over the analysis, history,
// comparison and cache services.
package v1handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ipinsight/internal/analysis"
	"ipinsight/internal/cache"
	"ipinsight/internal/comparison"
	"ipinsight/internal/history"
	"ipinsight/internal/worker"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/report"
	"ipinsight/pkg/serrors"
	"ipinsight/pkg/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodySize caps request bodies.
const maxBodySize = 1 << 20

// Deps are the services the handlers serve.
type Deps struct {
	Analysis    *analysis.Service
	Cache       *cache.Cache
	History     *history.Service
	Comparisons *comparison.Store
	Storage     storage.Storage
	Janitor     *worker.Janitor
	Reports     report.Generator
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Routes returns the v1 router. Paths include the /v1 prefix.
func (h Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyses", h.Analyze)
		r.Get("/validate", h.Validate)
		r.Get("/reports/{query}", h.Report)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Delete("/{id}", h.DeleteHistory)
			r.Post("/clean", h.CleanHistory)
		})
		r.Get("/statistics", h.Statistics)
		r.Get("/export", h.Export)

		r.Route("/comparisons", func(r chi.Router) {
			r.Get("/", h.ListComparisons)
			r.Post("/", h.CreateComparison)
			r.Delete("/{id}", h.DeleteComparison)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/", h.CacheStats)
			r.Delete("/", h.ClearCache)
			r.Delete("/{query}", h.RemoveCached)
		})

		r.Post("/maintenance", h.Maintenance)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, serrors.With(serrors.ErrNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, serrors.With(serrors.ErrBadRequest, "method not allowed").WithStatus(http.StatusMethodNotAllowed))
	})

	return r
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ErrorStatusCode pairs an error body with its HTTP status.
type ErrorStatusCode struct {
	StatusCode int
	Response   ErrorResponse
}

// NewError maps err to an HTTP status and a user-facing body. Internal errors
// are logged and hidden behind a generic message.
func (h Handler) NewError(ctx context.Context, err error) *ErrorStatusCode {
	code := serrors.CodeOf(err)
	res := &ErrorStatusCode{
		StatusCode: http.StatusInternalServerError,
		Response: ErrorResponse{
			Code:    code,
			Title:   serrors.Title(code),
			Message: "internal error",
		},
	}

	var se *serrors.Error
	hasMsg := errors.As(err, &se) && se.Message() != ""

	switch {
	case errors.Is(err, serrors.ErrInvalidInput), errors.Is(err, serrors.ErrBadRequest):
		res.StatusCode = http.StatusBadRequest
		res.Response.Message = "invalid request"
	case errors.Is(err, serrors.ErrNotFound):
		res.StatusCode = http.StatusNotFound
		res.Response.Message = "resource not found"
	case errors.Is(err, serrors.ErrBackend), errors.Is(err, serrors.ErrHTTP),
		errors.Is(err, serrors.ErrNetwork), errors.Is(err, serrors.ErrInvalidResponse):
		res.StatusCode = http.StatusBadGateway
		res.Response.Message = "analysis service error"
	case errors.Is(err, serrors.ErrStorage):
		res.StatusCode = http.StatusServiceUnavailable
		res.Response.Message = "storage unavailable"
	default:
		logger.Error(ctx, "internal error", zap.Error(err))

		return res
	}

	if hasMsg {
		res.Response.Message = se.Message()
	}
	if se != nil && se.Status() >= 400 && !errors.Is(err, serrors.ErrBackend) && !errors.Is(err, serrors.ErrHTTP) {
		res.StatusCode = se.Status()
	}

	logger.Debug(ctx, "request failed", zap.String("code", code), zap.Error(err))

	return res
}

func (h Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)
	writeJSON(r.Context(), w, res.StatusCode, res.Response)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn(ctx, "could not write response", zap.Error(err))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return serrors.Wrap(serrors.ErrBadRequest, err, "invalid JSON body")
	}

	return nil
}

// daysParam reads a positive day count from the query string. It reports
// false when the parameter is absent.
func daysParam(r *http.Request) (int, bool, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, false, nil
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, false, serrors.With(serrors.ErrBadRequest, "days must be a positive integer")
	}

	return days, true, nil
}
