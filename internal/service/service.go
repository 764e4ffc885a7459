package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/status-brief-service/internal/cache"
	"github.com/kjstillabower/status-brief-service/internal/canon"
	"github.com/kjstillabower/status-brief-service/internal/decode"
	"github.com/kjstillabower/status-brief-service/internal/models"
	"github.com/kjstillabower/status-brief-service/internal/observability"
	"github.com/kjstillabower/status-brief-service/internal/validation"
)

// Brief sources reported in Result.Source.
const (
	SourceParam   = "param"
	SourceCache   = "cache"
	SourceDefault = "default"
)

// Result is one rendered brief and where it came from.
type Result struct {
	Brief  models.Brief `json:"brief"`
	Source string       `json:"source"`
	Shape  string       `json:"shape"`
}

// BriefService runs the decode, canonicalize and snapshot pipeline for one request.
// The last successfully decoded document is kept in the snapshot store so a broken or
// missing link still renders the most recent real brief.
type BriefService struct {
	store       cache.Cache
	key         string
	ttl         time.Duration
	maxParamLen int
	location    *time.Location
	now         func() time.Time
	reads       *requestCoalescer[[]byte] // nil when coalescing is disabled
}

// Option configures a BriefService.
type Option func(*BriefService)

// WithClock replaces the wall clock used for time-of-day and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *BriefService) { s.now = now }
}

// WithReadCoalescing collapses concurrent snapshot reads into one store call, waiting at
// most timeout for a shared read.
func WithReadCoalescing(timeout time.Duration) Option {
	return func(s *BriefService) {
		if timeout > 0 {
			s.reads = newRequestCoalescer[[]byte](timeout)
		}
	}
}

// NewBriefService creates a BriefService storing snapshots in store under key with ttl.
// maxParamLen bounds the raw parameter (0 = unbounded); loc is the brief's local timezone
// (nil = UTC).
func NewBriefService(store cache.Cache, key string, ttl time.Duration, maxParamLen int, loc *time.Location, opts ...Option) *BriefService {
	if loc == nil {
		loc = time.UTC
	}
	s := &BriefService{
		store:       store,
		key:         key,
		ttl:         ttl,
		maxParamLen: maxParamLen,
		location:    loc,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loggerFromContext extracts the request logger, falling back to a no-op logger.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if l := observability.LoggerFromContext(ctx); l != nil {
		return l
	}
	return zap.NewNop()
}

// Render always produces a brief. A parameter that decodes is canonicalized and, when
// its shape is recognised, becomes the new snapshot. Otherwise the snapshot is read once
// and canonicalized; a miss or store error yields the default brief.
func (s *BriefService) Render(ctx context.Context, raw string) Result {
	start := time.Now()
	logger := loggerFromContext(ctx)
	now := s.now().In(s.location)

	var res Result
	doc, err := s.decodeParam(raw)
	if err == nil {
		brief, shape := canon.CanonicalizeShape(doc, now)
		if shape != canon.ShapeDefault {
			s.storeSnapshot(ctx, logger, doc)
		}
		res = Result{Brief: brief, Source: SourceParam, Shape: shape}
	} else {
		logger.Debug("data parameter unusable, falling back", zap.Error(err))
		res = s.fallback(ctx, logger, now)
	}

	observability.RecordRender(res.Source, res.Shape)
	logger.Debug("brief rendered",
		zap.String("source", res.Source),
		zap.String("shape", res.Shape),
		zap.Duration("duration", time.Since(start)))
	return res
}

// Now returns the service clock in the brief's timezone.
func (s *BriefService) Now() time.Time {
	return s.now().In(s.location)
}

func (s *BriefService) decodeParam(raw string) (any, error) {
	param, err := validation.ValidateParam(raw, s.maxParamLen)
	if err != nil {
		outcome := "invalid"
		if errors.Is(err, validation.ErrParamEmpty) {
			outcome = "empty"
		}
		observability.BriefDecodeTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}
	doc, err := decode.Decode(param)
	if err != nil {
		observability.BriefDecodeTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	observability.BriefDecodeTotal.WithLabelValues("decoded").Inc()
	return doc, nil
}

func (s *BriefService) fallback(ctx context.Context, logger *zap.Logger, now time.Time) Result {
	def := Result{Brief: canon.DefaultBrief(now), Source: SourceDefault, Shape: canon.ShapeDefault}

	payload, ok, err := s.loadSnapshot(ctx)
	if err != nil {
		logger.Warn("snapshot read failed", zap.String("key", s.key), zap.Error(err))
		return def
	}
	if !ok {
		logger.Debug("no snapshot stored", zap.String("key", s.key))
		return def
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		observability.SnapshotErrorsTotal.WithLabelValues("get", observability.ErrorCategoryParsing).Inc()
		logger.Warn("snapshot unreadable", zap.String("key", s.key), zap.Error(err))
		return def
	}
	brief, shape := canon.CanonicalizeShape(doc, now)
	if shape == canon.ShapeDefault {
		return def
	}
	return Result{Brief: brief, Source: SourceCache, Shape: shape}
}

func (s *BriefService) loadSnapshot(ctx context.Context) ([]byte, bool, error) {
	get := func(ctx context.Context) ([]byte, error) {
		start := time.Now()
		payload, ok, err := s.store.Get(ctx, s.key)
		observability.ObserveSnapshot("get", start, err)
		if err != nil || !ok {
			return nil, err
		}
		return payload, nil
	}
	if s.reads == nil {
		payload, err := get(ctx)
		return payload, payload != nil, err
	}
	payload, _, err := s.reads.GetOrDo(ctx, s.key, get)
	return payload, payload != nil, err
}

func (s *BriefService) storeSnapshot(ctx context.Context, logger *zap.Logger, doc any) {
	payload, err := json.Marshal(doc)
	if err != nil {
		logger.Warn("snapshot encode failed", zap.Error(err))
		return
	}
	start := time.Now()
	err = s.store.Set(ctx, s.key, payload, s.ttl)
	observability.ObserveSnapshot("set", start, err)
	if err != nil {
		logger.Warn("snapshot write failed", zap.String("key", s.key), zap.Error(err))
	}
}
