package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ipinsight/pkg/metrics"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests served outside the chi router.
const unmatchedRoute = "other"

// WithMetrics returns a middleware recording ipinsight_http_requests_total and
// ipinsight_http_request_duration_seconds per method, route pattern and status
// code. Route patterns come from chi, so path parameters do not inflate the
// label cardinality.
func WithMetrics(meter metric.Meter, next http.Handler) (http.Handler, error) {
	requests, err := meter.Int64Counter("ipinsight_http_requests_total",
		metric.WithDescription("Number of handled HTTP requests."))
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("ipinsight_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.DefaultBuckets...))
	if err != nil {
		return nil, err
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// chi fills a route context found in the request in place, so the
		// pattern is readable once the router is done.
		rctx := chi.NewRouteContext()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx)))

		route := rctx.RoutePattern()
		if route == "" {
			route = unmatchedRoute
		}

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(rec.status)),
		)
		requests.Add(r.Context(), 1, attrs)
		latency.Record(r.Context(), time.Since(start).Seconds(), attrs)
	}), nil
}
