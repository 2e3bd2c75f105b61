package controller_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ipinsight/pkg/controller"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestWithMetrics_LabelsRoutePattern(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	r := chi.NewRouter()
	r.Get("/v1/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	mux := http.NewServeMux()
	mux.Handle("/v1/", r)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {})

	h, err := controller.WithMetrics(mp.Meter("test"), mux)
	require.NoError(t, err)

	for _, path := range []string{"/v1/history/a", "/v1/history/b", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "ipinsight_http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(attribute.Key("route"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				counts[route.AsString()+" "+status.AsString()] += dp.Value
			}
		}
	}

	require.Equal(t, map[string]int64{
		"/v1/history/{id} 404": 2,
		"other 200":            1,
	}, counts)
}
