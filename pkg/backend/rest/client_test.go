package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ipinsight/pkg/backend/rest"
	"ipinsight/pkg/domain"
	"ipinsight/pkg/serrors"

	"github.com/stretchr/testify/require"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(fn rtFunc) *rest.Client {
	return rest.New(&http.Client{Transport: fn}, "http://backend.test/api/")
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

const successBody = `{
  "ip": "8.8.8.8",
  "type": "ipv4",
  "securityScore": 88,
  "riskLevel": "low",
  "timestamp": 1700000000000,
  "geolocation": {
    "country": "United States", "countryCode": "US", "region": "California",
    "city": "Mountain View", "latitude": 37.4056, "longitude": -122.0775,
    "timezone": "America/Los_Angeles", "isp": "Google LLC",
    "asn": "AS15169", "org": "Google LLC"
  },
  "services": [
    {"port": 53, "protocol": "udp", "service": "domain", "version": "", "banner": "",
     "vulnerabilities": [], "riskLevel": "low"},
    {"port": 23, "protocol": "tcp", "service": "telnet", "version": "1.0",
     "banner": "login:", "vulnerabilities": ["CVE-2020-0001"], "riskLevel": "high"}
  ],
  "reputation": [
    {"source": "nmap-nvd", "name": "", "status": "unknown", "statusText": "Unknown",
     "score": 90, "details": "none", "lastChecked": 1700000000000}
  ],
  "vulnerabilities": [
    {"id": "CVE-2020-0001", "title": "CVE-2020-0001", "description": "d",
     "severity": "high", "cvss": 8.1, "references": [], "solution": "patch"}
  ],
  "recommendations": [
    {"category": "service", "priority": "high", "title": "Disable telnet",
     "description": "Telnet is plaintext", "action": "Use SSH"}
  ],
  "metadata": {"scanDuration": 1200, "sourcesUsed": ["nmap"], "cached": false, "warnings": []}
}`

func TestClient_Analyze_success(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "backend.test", r.URL.Host)
		require.Equal(t, "/api/analysis/analyze", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body rest.V1Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, rest.V1Request{Query: "8.8.8.8", Type: "ipv4"}, body)

		return respond(http.StatusOK, successBody), nil
	})

	res, err := c.Analyze(context.Background(), "8.8.8.8", domain.TargetIPv4)
	require.NoError(t, err)

	require.Equal(t, "8.8.8.8", res.IP)
	require.Equal(t, domain.TargetIPv4, res.Type)
	require.Equal(t, 88, res.SecurityScore)
	require.EqualValues(t, 1700000000000, res.Timestamp)
	require.Equal(t, "Google LLC", res.Geolocation.ASNOrg)

	require.Len(t, res.Services, 2)
	require.Equal(t, "telnet", res.Services[1].Name)
	require.Equal(t, domain.RiskHigh, res.Services[1].RiskLevel)
	require.Equal(t, "High risk", res.Services[1].RiskText)

	require.Len(t, res.Reputation, 1)
	require.Equal(t, "nmap-nvd", res.Reputation[0].Name)
	require.Equal(t, domain.ReputationClean, res.Reputation[0].Status)
	require.Equal(t, 90, res.Reputation[0].Confidence)

	require.Len(t, res.Recommendations, 1)
	require.Equal(t, domain.PriorityHigh, res.Recommendations[0].Priority)
	require.Equal(t, "Use SSH", res.Recommendations[0].Action)
}

func TestClient_Analyze_structuredError(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusServiceUnavailable,
			`{"error":"nmap missing","message":"Nmap is not installed","code":"NMAP_NOT_FOUND"}`), nil
	})

	_, err := c.Analyze(context.Background(), "1.1.1.1", domain.TargetIPv4)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrBackend)
	require.Equal(t, "NMAP_NOT_FOUND", serrors.CodeOf(err))
	require.Equal(t, "Nmap is not installed", err.Error())

	var se *serrors.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusServiceUnavailable, se.Status())
}

func TestClient_Analyze_structuredErrorWithoutMessage(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusTooManyRequests, `{"error":"slow down","code":"NVD_RATE_LIMIT"}`), nil
	})

	_, err := c.Analyze(context.Background(), "1.1.1.1", domain.TargetIPv4)
	require.Equal(t, "NVD_RATE_LIMIT", serrors.CodeOf(err))
	require.Equal(t, "slow down", err.Error())
}

func TestClient_Analyze_unstructuredError(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, "upstream bad"), nil
	})

	_, err := c.Analyze(context.Background(), "1.1.1.1", domain.TargetIPv4)
	require.ErrorIs(t, err, serrors.ErrHTTP)
	require.Equal(t, "HTTP_ERROR", serrors.CodeOf(err))
	require.Equal(t, "HTTP 502: Bad Gateway", err.Error())
}

func TestClient_Analyze_networkError(t *testing.T) {
	boom := errors.New("connection refused")
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return nil, boom
	})

	_, err := c.Analyze(context.Background(), "1.1.1.1", domain.TargetIPv4)
	require.ErrorIs(t, err, serrors.ErrNetwork)
	require.ErrorIs(t, err, boom)
	require.Equal(t, "NETWORK_ERROR", serrors.CodeOf(err))
}

func TestClient_Analyze_invalidBody(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, "<html>"), nil
	})

	_, err := c.Analyze(context.Background(), "1.1.1.1", domain.TargetIPv4)
	require.ErrorIs(t, err, serrors.ErrInvalidResponse)
	require.Equal(t, "INVALID_RESPONSE", serrors.CodeOf(err))
}

func TestClient_Analyze_httptest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analysis/analyze" {
			http.NotFound(w, r)

			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"2001:db8::1","type":"ipv6","securityScore":70}`))
	}))
	t.Cleanup(srv.Close)

	c := rest.New(srv.Client(), srv.URL+"/api")
	res, err := c.Analyze(context.Background(), "2001:db8::1", domain.TargetIPv6)
	require.NoError(t, err)
	require.Equal(t, domain.TargetIPv6, res.Type)
	require.Equal(t, 70, res.SecurityScore)
	require.Positive(t, res.Timestamp)
	require.Empty(t, res.Services)
}
