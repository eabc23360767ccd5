// Package rank combines match strength, base quality, verification and plan
// tier into the single score listings are ordered by.
package rank

import (
	"fmt"
	"math"

	"marketplace-discovery/internal/models"
)

const (
	LabelTop    = "Top match"
	LabelStrong = "Strong match"
	LabelGood   = "Good match"
)

type Config struct {
	MatchWeight   float64
	QualityWeight float64
	// LocationNudge scales location strength when folded into match.
	LocationNudge float64
	// MaxMatch normalises match into [0,1]; category 1.0 plus a full
	// location nudge by default.
	MaxMatch        float64
	VerifiedBoost   float64
	PlanBoosts      map[models.PlanType]float64
	TopThreshold    float64
	StrongThreshold float64
}

func DefaultConfig() Config {
	return Config{
		MatchWeight:   0.6,
		QualityWeight: 0.4,
		LocationNudge: 0.25,
		MaxMatch:      1.25,
		VerifiedBoost: 0.05,
		PlanBoosts: map[models.PlanType]float64{
			models.PlanFree:    0,
			models.PlanPro:     0.02,
			models.PlanPremium: 0.04,
		},
		TopThreshold:    0.80,
		StrongThreshold: 0.60,
	}
}

func ValidateConfig(c Config) error {
	if c.MatchWeight < 0 || c.QualityWeight < 0 {
		return fmt.Errorf("rank weights must be >= 0")
	}
	if c.MatchWeight+c.QualityWeight <= 0 {
		return fmt.Errorf("rank weights must sum to a positive number")
	}
	if c.MaxMatch <= 0 {
		return fmt.Errorf("max match must be > 0")
	}
	if c.StrongThreshold > c.TopThreshold {
		return fmt.Errorf("strong threshold %.2f exceeds top threshold %.2f", c.StrongThreshold, c.TopThreshold)
	}
	return nil
}

// Result is the per-candidate ranking outcome. Label is presentation only.
type Result struct {
	RankScore float64 `json:"rankScore"`
	Match     float64 `json:"match"`
	Label     string  `json:"label"`
}

type Composer struct {
	cfg Config
}

func NewComposer(cfg Config) (*Composer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Composer{cfg: cfg}, nil
}

// Match folds both axes into one value; category dominates.
func (c *Composer) Match(categoryMatch, locationMatch float64) float64 {
	return categoryMatch + c.cfg.LocationNudge*locationMatch
}

// Compute returns the rank score for one candidate:
//
//	rankScore = W_match*min(1, match/MaxMatch) + W_quality*baseQuality + verifiedBoost + planBoost
func (c *Composer) Compute(f models.RankFeatures, categoryMatch, locationMatch float64, verified bool, plan models.PlanType) Result {
	m := c.Match(categoryMatch, locationMatch)
	normalized := math.Min(1, math.Max(0, m/c.cfg.MaxMatch))

	score := c.cfg.MatchWeight*normalized + c.cfg.QualityWeight*f.BaseQuality
	if verified {
		score += c.cfg.VerifiedBoost
	}
	score += c.cfg.PlanBoosts[plan]

	return Result{RankScore: score, Match: m, Label: c.Label(score)}
}

// Label classifies a rank score for display.
func (c *Composer) Label(score float64) string {
	switch {
	case score >= c.cfg.TopThreshold:
		return LabelTop
	case score >= c.cfg.StrongThreshold:
		return LabelStrong
	default:
		return LabelGood
	}
}
