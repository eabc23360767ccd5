// Package pipeline runs the shared discovery flow behind every public
// listing view: read candidates, gate eligibility, score, sort, paginate.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"marketplace-discovery/internal/common/errors"
	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/common/metrics"
	"marketplace-discovery/internal/discovery/eligibility"
	"marketplace-discovery/internal/discovery/match"
	"marketplace-discovery/internal/discovery/quality"
	"marketplace-discovery/internal/discovery/rank"
	"marketplace-discovery/internal/discovery/store"
	"marketplace-discovery/internal/models"
)

// Store is the read-only catalogue the pipeline consumes.
type Store interface {
	PublishedSuppliers(ctx context.Context, f store.CandidateFilter) ([]models.Supplier, error)
	Images(ctx context.Context, f store.CandidateFilter) ([]models.SupplierImage, error)
	Aggregates(ctx context.Context, f store.CandidateFilter) (map[string]models.PerformanceAggregate, error)
	RankFeatures(ctx context.Context, f store.CandidateFilter) (map[string]models.RankFeatures, error)
	ActiveCategory(ctx context.Context, slug string) (*models.Category, error)
	Locations(ctx context.Context) ([]models.Location, error)
}

// Searcher prefilters free-text candidates.
type Searcher interface {
	SearchIDs(ctx context.Context, term string, limit int) ([]string, error)
}

// Baseline supplies the marketplace acceptance prior.
type Baseline interface {
	Get(ctx context.Context) (float64, error)
}

type Config struct {
	MaxCandidates   int
	DefaultPageSize int
	MaxPageSize     int
	StoreTimeout    time.Duration
	ImageBaseURL    string
}

func DefaultConfig() Config {
	return Config{
		MaxCandidates:   500,
		DefaultPageSize: 24,
		MaxPageSize:     60,
		StoreTimeout:    3 * time.Second,
	}
}

// Deps wires the scorers and data sources. Search, Logger, Tracer and Now
// are optional.
type Deps struct {
	Store    Store
	Search   Searcher
	Baseline Baseline
	Gate     *eligibility.Gate
	Match    *match.Scorer
	Quality  *quality.Scorer
	Rank     *rank.Composer
	Logger   logger.Logger
	Tracer   trace.Tracer
	Now      func() time.Time
}

type Pipeline struct {
	cfg      Config
	store    Store
	search   Searcher
	baseline Baseline
	gate     *eligibility.Gate
	match    *match.Scorer
	quality  *quality.Scorer
	rank     *rank.Composer
	logger   logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Store == nil || deps.Baseline == nil {
		return nil, fmt.Errorf("pipeline requires a store and a baseline")
	}
	if deps.Gate == nil || deps.Match == nil || deps.Quality == nil || deps.Rank == nil {
		return nil, fmt.Errorf("pipeline requires gate, match, quality and rank scorers")
	}
	if cfg.MaxCandidates <= 0 || cfg.DefaultPageSize <= 0 || cfg.MaxPageSize < cfg.DefaultPageSize {
		return nil, fmt.Errorf("invalid pipeline limits: candidates=%d default=%d max=%d",
			cfg.MaxCandidates, cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultConfig().StoreTimeout
	}

	p := &Pipeline{
		cfg:      cfg,
		store:    deps.Store,
		search:   deps.Search,
		baseline: deps.Baseline,
		gate:     deps.Gate,
		match:    deps.Match,
		quality:  deps.Quality,
		rank:     deps.Rank,
		logger:   deps.Logger,
		tracer:   deps.Tracer,
		now:      deps.Now,
	}
	if p.logger == nil {
		p.logger = logger.NewNoOpLogger()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer("marketplace-discovery/pipeline")
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// snapshot is everything read from the store for one request.
type snapshot struct {
	category  *models.Category
	suppliers []models.Supplier
	images    map[string][]models.SupplierImage
	aggs      map[string]models.PerformanceAggregate
	features  map[string]models.RankFeatures
	baseline  float64
}

// candidate is an eligible supplier that survived filtering.
type candidate struct {
	supplier   models.Supplier
	agg        *models.PerformanceAggregate
	rank       rank.Result
	lastActive *time.Time
}

// Discover returns one page of the listing view described by q.
func (p *Pipeline) Discover(ctx context.Context, q Query) (*models.ListingPage, error) {
	start := p.now()
	ctx, span := p.tracer.Start(ctx, "pipeline.Discover")
	defer span.End()

	page, kind, err := p.discover(ctx, q, span)

	outcome := "ok"
	if err != nil {
		stdErr := errors.AsStandardError(err)
		outcome = string(stdErr.Code)
		span.RecordError(err)
		span.SetStatus(codes.Error, stdErr.Message)
	}
	metrics.DiscoveryRequests.WithLabelValues(string(kind), outcome).Inc()
	metrics.DiscoveryDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	return page, err
}

func (p *Pipeline) discover(ctx context.Context, raw Query, span trace.Span) (*models.ListingPage, models.QueryKind, error) {
	q, err := p.normalize(raw)
	if err != nil {
		return nil, "invalid", err
	}
	kind := q.Kind()
	span.SetAttributes(
		attribute.String("discovery.kind", string(kind)),
		attribute.String("discovery.category", q.CategorySlug),
		attribute.String("discovery.location", q.LocationSlug),
		attribute.Int("discovery.page", q.Page),
		attribute.Int("discovery.page_size", q.PageSize),
	)

	snap, err := p.load(ctx, q, kind)
	if err != nil {
		return nil, kind, err
	}
	if q.CategorySlug != "" && snap.category == nil {
		return nil, kind, errors.NewCategoryNotFoundError(q.CategorySlug)
	}

	metrics.DiscoveryCandidates.WithLabelValues(string(kind)).Observe(float64(len(snap.suppliers)))

	now := p.now()
	var ranked []candidate
	if kind.Scored() {
		ranked = p.scoreCandidates(q, snap, now)
		sortRanked(ranked)
	} else {
		ranked = p.searchCandidates(q, snap)
		sortSearch(ranked)
	}

	page := p.paginate(q, kind, snap, ranked, now)
	span.SetAttributes(
		attribute.Int("discovery.candidates", len(snap.suppliers)),
		attribute.Int("discovery.total", page.Total),
	)
	p.logger.Debug("discovery completed", map[string]interface{}{
		"kind":       string(kind),
		"category":   q.CategorySlug,
		"location":   q.LocationSlug,
		"term":       q.Term,
		"candidates": len(snap.suppliers),
		"total":      page.Total,
		"page":       q.Page,
	})
	return page, kind, nil
}

// load reads every input concurrently under the store timeout. The first
// failure cancels the remaining reads.
func (p *Pipeline) load(ctx context.Context, q Query, kind models.QueryKind) (*snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	defer cancel()

	filter := store.CandidateFilter{CategorySlug: q.CategorySlug, Limit: p.cfg.MaxCandidates}
	if kind == models.QueryKindSearch && p.search != nil {
		ids, err := p.search.SearchIDs(ctx, q.Term, p.cfg.MaxCandidates)
		if err != nil {
			metrics.SearchIndexFallbacks.Inc()
			p.logger.Warn("search index unavailable, scanning catalogue", map[string]interface{}{
				"term":  q.Term,
				"error": err.Error(),
			})
		} else {
			if ids == nil {
				ids = []string{}
			}
			filter.IDs = ids
		}
	}

	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	if q.CategorySlug != "" {
		g.Go(func() error {
			c, err := p.store.ActiveCategory(gctx, q.CategorySlug)
			if err != nil {
				return errors.NewUpstreamReadError("categories", err)
			}
			snap.category = c
			return nil
		})
	}
	g.Go(func() error {
		s, err := p.store.PublishedSuppliers(gctx, filter)
		if err != nil {
			return errors.NewUpstreamReadError("suppliers", err)
		}
		snap.suppliers = s
		return nil
	})
	g.Go(func() error {
		imgs, err := p.store.Images(gctx, filter)
		if err != nil {
			return errors.NewUpstreamReadError("supplier images", err)
		}
		snap.images = groupImages(imgs)
		return nil
	})
	g.Go(func() error {
		aggs, err := p.store.Aggregates(gctx, filter)
		if err != nil {
			return errors.NewUpstreamReadError("performance aggregates", err)
		}
		snap.aggs = aggs
		return nil
	})
	if kind.Scored() {
		g.Go(func() error {
			f, err := p.store.RankFeatures(gctx, filter)
			if err != nil {
				return errors.NewUpstreamReadError("rank features", err)
			}
			snap.features = f
			return nil
		})
		g.Go(func() error {
			b, err := p.baseline.Get(gctx)
			if err != nil {
				return errors.NewUpstreamReadError("performance baseline", err)
			}
			snap.baseline = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Error("discovery read failed", map[string]interface{}{
			"kind":  string(kind),
			"error": err.Error(),
		})
		return nil, err
	}
	if len(snap.suppliers) >= p.cfg.MaxCandidates {
		metrics.CandidatesTruncated.WithLabelValues(string(kind)).Inc()
		p.logger.Warn("candidate set reached its limit, results may be incomplete", map[string]interface{}{
			"kind":     string(kind),
			"category": q.CategorySlug,
			"location": q.LocationSlug,
			"limit":    p.cfg.MaxCandidates,
		})
	}
	return snap, nil
}

func groupImages(imgs []models.SupplierImage) map[string][]models.SupplierImage {
	out := make(map[string][]models.SupplierImage)
	for _, img := range imgs {
		out[img.SupplierID] = append(out[img.SupplierID], img)
	}
	return out
}

func (p *Pipeline) eligible(s models.Supplier, snap *snapshot) bool {
	if !s.IsPublished {
		metrics.DiscoveryExcluded.WithLabelValues("unpublished").Inc()
		return false
	}
	if !p.gate.Evaluate(s, snap.images[s.ID]).CanPublish {
		metrics.DiscoveryExcluded.WithLabelValues("ineligible").Inc()
		return false
	}
	return true
}

func (p *Pipeline) scoreCandidates(q Query, snap *snapshot, now time.Time) []candidate {
	out := make([]candidate, 0, len(snap.suppliers))
	for _, s := range snap.suppliers {
		if !p.eligible(s, snap) {
			continue
		}

		m := p.match.Score(q.CategorySlug, q.LocationSlug, s.Categories,
			match.Location{Label: s.LocationLabel, BaseCity: s.BaseCity})
		if q.CategorySlug != "" && m.CategoryMatch <= 0 {
			metrics.DiscoveryExcluded.WithLabelValues("no_category_match").Inc()
			continue
		}
		if q.CategorySlug == "" && m.LocationMatch <= 0 {
			metrics.DiscoveryExcluded.WithLabelValues("no_location_match").Inc()
			continue
		}

		agg := aggregateFor(snap, s.ID)
		var pre *models.RankFeatures
		if f, ok := snap.features[s.ID]; ok {
			pre = &f
		}
		features, source := p.quality.Resolve(pre, agg, snap.baseline, now)
		metrics.QualitySource.WithLabelValues(string(source)).Inc()

		r := p.rank.Compute(features, m.CategoryMatch, m.LocationMatch, s.IsVerified, s.PlanType)
		if r.Match <= 0 {
			metrics.DiscoveryExcluded.WithLabelValues("no_match").Inc()
			continue
		}
		out = append(out, candidate{supplier: s, agg: agg, rank: r, lastActive: lastActive(agg)})
	}
	return out
}

func (p *Pipeline) searchCandidates(q Query, snap *snapshot) []candidate {
	term := strings.ToLower(q.Term)
	out := make([]candidate, 0, len(snap.suppliers))
	for _, s := range snap.suppliers {
		if !p.eligible(s, snap) {
			continue
		}
		if !containsTerm(s, term) {
			metrics.DiscoveryExcluded.WithLabelValues("no_term_match").Inc()
			continue
		}
		agg := aggregateFor(snap, s.ID)
		out = append(out, candidate{supplier: s, agg: agg, lastActive: lastActive(agg)})
	}
	return out
}

// containsTerm reports whether any searchable field contains term. term
// must already be lower case.
func containsTerm(s models.Supplier, term string) bool {
	fields := []string{s.BusinessName, s.ShortDescription, s.About, s.LocationLabel, s.BaseCity}
	fields = append(fields, s.Categories...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func aggregateFor(snap *snapshot, id string) *models.PerformanceAggregate {
	if a, ok := snap.aggs[id]; ok {
		return &a
	}
	return nil
}

func lastActive(agg *models.PerformanceAggregate) *time.Time {
	if agg == nil || agg.LastActiveAt == nil || agg.LastActiveAt.IsZero() {
		return nil
	}
	return agg.LastActiveAt
}
