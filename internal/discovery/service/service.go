// Package service assembles the discovery components from configuration.
package service

import (
	"database/sql"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"marketplace-discovery/internal/common/config"
	"marketplace-discovery/internal/common/errors"
	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/discovery/baseline"
	"marketplace-discovery/internal/discovery/eligibility"
	"marketplace-discovery/internal/discovery/match"
	"marketplace-discovery/internal/discovery/pipeline"
	"marketplace-discovery/internal/discovery/quality"
	"marketplace-discovery/internal/discovery/rank"
	"marketplace-discovery/internal/discovery/store"
	"marketplace-discovery/internal/models"
)

// Backends are the connections the components read from. Redis and
// Elasticsearch are optional.
type Backends struct {
	DB            *sql.DB
	Redis         *redis.Client
	Elasticsearch *elasticsearch.Client
	SupplierIndex string
}

// Components is the wired discovery service.
type Components struct {
	Store    *store.Postgres
	Gate     *eligibility.Gate
	Baseline *baseline.Cache
	Pipeline *pipeline.Pipeline
}

// New builds every component. Invalid tuning is reported as a
// configuration error.
func New(cfg config.DiscoveryConfig, b Backends, log logger.Logger, tracer trace.Tracer) (*Components, error) {
	if b.DB == nil {
		return nil, errors.NewConfigurationError("discovery requires a postgres connection")
	}

	gate, err := eligibility.NewGate(EligibilityConfig(cfg.Eligibility))
	if err != nil {
		return nil, errors.NewConfigurationError(err.Error())
	}
	qs, err := quality.NewScorer(QualityConfig(cfg.Quality))
	if err != nil {
		return nil, errors.NewConfigurationError(err.Error())
	}
	mc := MatchConfig(cfg.Match)
	if err := match.ValidateConfig(mc); err != nil {
		return nil, errors.NewConfigurationError(err.Error())
	}
	rc, err := rank.NewComposer(RankConfig(cfg.Rank, mc))
	if err != nil {
		return nil, errors.NewConfigurationError(err.Error())
	}

	pg := store.NewPostgres(b.DB, store.ResponseUnit(cfg.ResponseTimeUnit))

	var source baseline.Source = pg
	if b.Redis != nil {
		source = baseline.NewRedisSource(pg, b.Redis, config.GetDuration(cfg.BaselineTTL), log)
	}
	cache := baseline.NewCache(source, config.GetDuration(cfg.BaselineTTL), cfg.DefaultBaseline, log)

	deps := pipeline.Deps{
		Store:    pg,
		Baseline: cache,
		Gate:     gate,
		Match:    match.NewScorer(mc),
		Quality:  qs,
		Rank:     rc,
		Logger:   log,
		Tracer:   tracer,
	}
	if b.Elasticsearch != nil && b.SupplierIndex != "" {
		deps.Search = store.NewSearchIndex(b.Elasticsearch, b.SupplierIndex)
	}

	p, err := pipeline.New(PipelineConfig(cfg), deps)
	if err != nil {
		return nil, errors.NewConfigurationError(err.Error())
	}

	log.Info("discovery pipeline ready", map[string]interface{}{
		"maxCandidates": cfg.MaxCandidates,
		"sharedCache":   b.Redis != nil,
		"searchIndex":   deps.Search != nil,
	})
	return &Components{Store: pg, Gate: gate, Baseline: cache, Pipeline: p}, nil
}

func PipelineConfig(c config.DiscoveryConfig) pipeline.Config {
	return pipeline.Config{
		MaxCandidates:   c.MaxCandidates,
		DefaultPageSize: c.DefaultPageSize,
		MaxPageSize:     c.MaxPageSize,
		StoreTimeout:    config.GetDuration(c.StoreTimeout),
		ImageBaseURL:    c.ImageBaseURL,
	}
}

func EligibilityConfig(c config.EligibilityConfig) eligibility.Config {
	disabled := make(map[string]bool, len(c.Disabled))
	for _, name := range c.Disabled {
		disabled[name] = true
	}
	return eligibility.Config{
		Disabled:           disabled,
		MinShortDesc:       c.MinShortDesc,
		MinAbout:           c.MinAbout,
		MinCategories:      c.MinCategories,
		MinLocation:        c.MinLocation,
		MinHeroImages:      c.MinHeroImages,
		MinGalleryImages:   c.MinGalleryImages,
		MinDistinctService: c.MinDistinctService,
	}
}

func QualityConfig(c config.QualityConfig) quality.Config {
	return quality.Config{
		PriorStrength:    c.PriorStrength,
		InstantResponse:  minutes(c.InstantResponseMins),
		ResponseCeiling:  hours(c.ResponseCeilingHours),
		ActivityHalfLife: hours(c.ActivityHalfLifeDays * 24),
		VolumeSaturation: c.VolumeSaturation,
		Weights: quality.Weights{
			Acceptance: c.AcceptanceWeight,
			Response:   c.ResponseWeight,
			Activity:   c.ActivityWeight,
			Volume:     c.VolumeWeight,
		},
		FastResponderWithin:   hours(c.FastResponderHours),
		FastResponderMinSent:  c.FastResponderMinSent,
		HighConversionRate:    c.HighConversionRate,
		HighConversionMinSent: c.HighConversionMinSent,
		ActiveWithin:          hours(c.ActiveWithinDays * 24),
	}
}

func MatchConfig(c config.MatchConfig) match.Config {
	return match.Config{
		CategoryExact:   c.CategoryExact,
		LocationExact:   c.LocationExact,
		LocationPartial: c.LocationPartial,
	}
}

// RankConfig maps rank tuning. MaxMatch is the strongest possible match: an
// exact category plus a full location nudge.
func RankConfig(c config.RankConfig, m match.Config) rank.Config {
	boosts := make(map[models.PlanType]float64, len(c.PlanBoosts))
	for plan, v := range c.PlanBoosts {
		boosts[models.PlanType(plan)] = v
	}
	return rank.Config{
		MatchWeight:     c.MatchWeight,
		QualityWeight:   c.QualityWeight,
		LocationNudge:   c.LocationNudge,
		MaxMatch:        m.CategoryExact + c.LocationNudge*m.LocationExact,
		VerifiedBoost:   c.VerifiedBoost,
		PlanBoosts:      boosts,
		TopThreshold:    c.TopThreshold,
		StrongThreshold: c.StrongThreshold,
	}
}

func minutes(v float64) time.Duration {
	return time.Duration(v * float64(time.Minute))
}

func hours(v float64) time.Duration {
	return time.Duration(v * float64(time.Hour))
}
