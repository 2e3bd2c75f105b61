// Package analysis turns a free-text query into an analysis result. It
// classifies the query, serves repeat queries from the result cache, routes
// domains to the synthetic generator and IP addresses to the remote analysis
// service, and records every completed analysis in the history.
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"ipinsight/internal/config"
	"ipinsight/pkg/backend"
	"ipinsight/pkg/domain"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/metrics"
	"ipinsight/pkg/serrors"
	"ipinsight/pkg/target"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Path labels how a result was obtained.
type Path string

const (
	PathCache     Path = "cache"
	PathSynthetic Path = "synthetic"
	PathBackend   Path = "backend"
	PathFallback  Path = "fallback"
	// PathNone labels queries rejected before any lookup.
	PathNone Path = "none"
)

// ResultCache is the subset of the result cache used by the service.
type ResultCache interface {
	Get(ctx context.Context, query string) (*domain.AnalysisResult, bool)
	Set(ctx context.Context, query string, result *domain.AnalysisResult, ttl time.Duration)
}

// Recorder records completed analyses.
type Recorder interface {
	Record(ctx context.Context, query string, result *domain.AnalysisResult, fromCache bool) domain.HistoryEntry
}

// Options configures a Service.
type Options struct {
	// CacheTTL is the lifetime of freshly cached results.
	CacheTTL time.Duration
	// FallbackToSynthetic replaces network failures on the IP path with a
	// synthetic result for the address.
	FallbackToSynthetic bool
	// Now returns the current time. time.Now is used when nil.
	Now func() time.Time
	// Meter records analysis counters and backend latency. A no-op meter is
	// used when nil.
	Meter metric.Meter
}

// NewOptions constructs Options from the application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		CacheTTL:            cfg.Cache.TTL,
		FallbackToSynthetic: cfg.Backend.FallbackToSynthetic,
	}
}

// Outcome is a successful analysis.
type Outcome struct {
	Result    *domain.AnalysisResult `json:"result"`
	FromCache bool                   `json:"fromCache"`
}

// Service is the analysis client. It is safe for concurrent use.
type Service struct {
	backend backend.Client
	cache   ResultCache
	history Recorder
	opts    Options
	tracer  trace.Tracer

	analyses       metric.Int64Counter
	cacheLookups   metric.Int64Counter
	backendLatency metric.Float64Histogram
}

// New returns a Service.
func New(b backend.Client, c ResultCache, h Recorder, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Meter == nil {
		opts.Meter = noop.NewMeterProvider().Meter("")
	}

	analyses, _ := opts.Meter.Int64Counter("ipinsight_analyses_total",
		metric.WithDescription("Completed and failed analyses by path and outcome"))
	cacheLookups, _ := opts.Meter.Int64Counter("ipinsight_cache_lookups_total",
		metric.WithDescription("Result cache lookups by hit"))
	backendLatency, _ := opts.Meter.Float64Histogram("ipinsight_backend_latency_seconds",
		metric.WithDescription("Latency of requests to the analysis service"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.DefaultBuckets...))

	return &Service{
		backend:        b,
		cache:          c,
		history:        h,
		opts:           opts,
		tracer:         otel.Tracer("ipinsight-analysis"),
		analyses:       analyses,
		cacheLookups:   cacheLookups,
		backendLatency: backendLatency,
	}
}

// Analyze classifies query and returns its analysis. Invalid input fails with
// serrors.ErrInvalidInput before anything else happens. Backend failures are
// returned as they come from the backend client.
func (s *Service) Analyze(ctx context.Context, query string) (*Outcome, error) {
	query = strings.TrimSpace(query)
	ctx = logger.WithFields(ctx, zap.String("query", query))

	ctx, span := s.tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	out, path, err := s.analyze(ctx, query)
	s.analyses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", string(path)),
		attribute.Bool("success", err == nil),
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, serrors.CodeOf(err))

		return nil, err
	}
	span.SetAttributes(attribute.String("path", string(path)), attribute.Int("score", out.Result.SecurityScore))

	return out, nil
}

func (s *Service) analyze(ctx context.Context, query string) (*Outcome, Path, error) {
	kind := target.Classify(query)
	t, ok := kind.TargetType()
	if !ok {
		return nil, PathNone, serrors.With(serrors.ErrInvalidInput, "invalid IP address or domain format")
	}

	cached, hit := s.cache.Get(ctx, query)
	s.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
	if hit {
		logger.Debug(ctx, "serving analysis from cache")
		s.history.Record(ctx, query, cached, true)

		return &Outcome{Result: cached, FromCache: true}, PathCache, nil
	}

	var (
		result *domain.AnalysisResult
		path   Path
	)
	if t == domain.TargetDomain {
		result, path = Synthesize(PlaceholderIP, domain.TargetDomain, s.opts.Now()), PathSynthetic
	} else {
		var err error
		result, path, err = s.fromBackend(ctx, query, t)
		if err != nil {
			return nil, PathBackend, err
		}
	}

	s.cache.Set(ctx, query, result, s.opts.CacheTTL)
	s.history.Record(ctx, query, result, false)

	logger.Info(ctx, "analysis completed",
		zap.String("path", string(path)),
		zap.String("ip", result.IP),
		zap.Int("score", result.SecurityScore))

	return &Outcome{Result: result}, path, nil
}

func (s *Service) fromBackend(ctx context.Context, query string, t domain.TargetType) (*domain.AnalysisResult, Path, error) {
	start := time.Now()
	result, err := s.backend.Analyze(ctx, query, t)
	s.backendLatency.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("code", serrors.CodeOf(err))))
	if err == nil {
		return result, PathBackend, nil
	}

	if s.opts.FallbackToSynthetic && errors.Is(err, serrors.ErrNetwork) {
		logger.Warn(ctx, "analysis service unreachable, using synthetic result", zap.Error(err))

		return Synthesize(query, t, s.opts.Now()), PathFallback, nil
	}

	logger.Warn(ctx, "analysis failed", zap.String("code", serrors.CodeOf(err)), zap.Error(err))

	return nil, PathBackend, err
}
