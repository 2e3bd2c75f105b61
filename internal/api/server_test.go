package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ipinsight/internal/analysis"
	"ipinsight/internal/api"
	"ipinsight/internal/api/handler/v1handler"
	"ipinsight/internal/cache"
	"ipinsight/internal/config"
	"ipinsight/internal/history"
	mockbackend "ipinsight/pkg/backend/mock"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/storage/bolt"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	_ = logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func newTestServer(t *testing.T, opts api.Options) *httptest.Server {
	t.Helper()

	s, err := bolt.New(bolt.Options{Path: filepath.Join(t.TempDir(), "server.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	c := cache.New(s, cache.Options{})
	hist := history.New(s, history.Options{})
	b := mockbackend.NewMockClient(gomock.NewController(t))

	h, err := api.NewHandler(api.Deps{Deps: v1handler.Deps{
		Analysis: analysis.New(b, c, hist, analysis.Options{CacheTTL: time.Minute}),
		Cache:    c,
		History:  hist,
		Storage:  s,
	}}, opts)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return srv
}

func TestNewOptions(t *testing.T) {
	cfg := &config.Config{}
	cfg.HTTP.Addr = ":9000"
	cfg.HTTP.RequestTimeout = time.Second
	cfg.HTTP.MetricsPath = "/metrics"

	opts := api.NewOptions(cfg)
	require.Equal(t, ":9000", opts.Addr)
	require.Equal(t, time.Second, opts.RequestTimeout)
	require.Equal(t, "/metrics", opts.MetricsPath)
}

func TestServer_RoutesAndMiddlewares(t *testing.T) {
	srv := newTestServer(t, api.Options{RequestTimeout: time.Minute, MetricsPath: "/metrics"})

	res, err := srv.Client().Post(srv.URL+"/v1/analyses", "application/json", strings.NewReader(`{"query":"example.com"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))

	var out analysis.Outcome
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, "8.8.8.8", out.Result.IP)

	spec, err := srv.Client().Get(srv.URL + "/specs/v1.yaml")
	require.NoError(t, err)
	defer spec.Body.Close()
	require.Equal(t, http.StatusOK, spec.StatusCode)
	body, err := io.ReadAll(spec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "openapi: 3.0.3")

	docs, err := srv.Client().Get(srv.URL + "/v1/docs/")
	require.NoError(t, err)
	defer docs.Body.Close()
	require.Equal(t, http.StatusOK, docs.StatusCode)

	metrics, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	require.Equal(t, http.StatusOK, metrics.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/history", nil)
	require.NoError(t, err)
	pre, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer pre.Body.Close()
	require.Equal(t, http.StatusNoContent, pre.StatusCode)
	require.Contains(t, pre.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}
