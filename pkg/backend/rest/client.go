// Package rest provides a backend.Client implementation that talks to the
// analysis service over its JSON REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ipinsight/pkg/backend"
	"ipinsight/pkg/domain"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/serrors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// analyzePath is appended to the configured base URL.
const analyzePath = "/analysis/analyze"

// maxBodySize caps how much of a response is read.
const maxBodySize = 10 << 20

// Client sends analysis requests to the service. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tracer     trace.Tracer
	now        func() time.Time
}

// Ensure Client conforms to the backend.Client interface at compile time.
var _ backend.Client = (*Client)(nil)

// New constructs a Client posting to baseURL with the given http.Client. No
// timeout is added on top of the http.Client and the caller's context.
func New(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tracer:     otel.Tracer("ipinsight-backend"),
		now:        time.Now,
	}
}

// Analyze posts {query, type} to the service and maps the v1 response with
// ToDomain.
func (c *Client) Analyze(ctx context.Context, query string, t domain.TargetType) (*domain.AnalysisResult, error) {
	ctx, span := c.tracer.Start(ctx, "backend.analyze",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("query", query),
			attribute.String("type", string(t)),
		),
	)
	defer span.End()

	res, err := c.analyze(ctx, query, t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, serrors.CodeOf(err))

		return nil, err
	}

	return res, nil
}

func (c *Client) analyze(ctx context.Context, query string, t domain.TargetType) (*domain.AnalysisResult, error) {
	bodyBytes, err := json.Marshal(V1Request{Query: query, Type: string(t)})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	logger.Debug(ctx, "sending analysis request", zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrNetwork, err, "could not reach analysis service")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrNetwork, err, "could not read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, b)
	}

	var v1 V1AnalysisResult
	if err := json.Unmarshal(b, &v1); err != nil {
		return nil, serrors.Wrap(serrors.ErrInvalidResponse, err, "could not decode analysis response").
			WithStatus(resp.StatusCode)
	}

	return ToDomain(&v1, t, c.now()), nil
}

// statusError converts a non-2xx response. A structured body with a code is
// surfaced with that code verbatim; anything else becomes HTTP_ERROR.
func statusError(status int, body []byte) error {
	var e V1Error
	if err := json.Unmarshal(body, &e); err == nil && e.Code != "" {
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		if msg == "" {
			msg = http.StatusText(status)
		}

		return serrors.Backend(e.Code, msg, status)
	}

	return serrors.With(serrors.ErrHTTP, "HTTP %d: %s", status, http.StatusText(status)).WithStatus(status)
}
