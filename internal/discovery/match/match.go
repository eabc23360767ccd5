// Package match scores how well a supplier's stored categories and location
// satisfy a query slug. Category and location are independent axes so the
// caller can require one and treat the other as a ranking booster.
package match

import (
	"fmt"
	"strings"

	"marketplace-discovery/internal/discovery/textnorm"
)

type Config struct {
	CategoryExact   float64
	LocationExact   float64
	LocationPartial float64
}

func DefaultConfig() Config {
	return Config{CategoryExact: 1.0, LocationExact: 1.0, LocationPartial: 0.5}
}

// ValidateConfig requires positive exact strengths and a partial location
// strength that never outranks an exact one.
func ValidateConfig(cfg Config) error {
	if cfg.CategoryExact <= 0 || cfg.LocationExact <= 0 {
		return fmt.Errorf("exact match strengths must be positive: category=%v location=%v",
			cfg.CategoryExact, cfg.LocationExact)
	}
	if cfg.LocationPartial < 0 || cfg.LocationPartial > cfg.LocationExact {
		return fmt.Errorf("partial location strength %v must be within [0, %v]",
			cfg.LocationPartial, cfg.LocationExact)
	}
	return nil
}

// Location carries the two stored location fields of a supplier.
type Location struct {
	Label    string
	BaseCity string
}

// Result holds both match strengths; zero means no match on that axis.
type Result struct {
	CategoryMatch float64 `json:"categoryMatch"`
	LocationMatch float64 `json:"locationMatch"`
}

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// CategoryMatchStrength returns CategoryExact when any stored label
// normalises to querySlug, otherwise 0.
func (s *Scorer) CategoryMatchStrength(querySlug string, categories []string) float64 {
	if querySlug == "" {
		return 0
	}
	for _, c := range categories {
		if textnorm.ToSlug(c) == querySlug {
			return s.cfg.CategoryExact
		}
	}
	return 0
}

// LocationMatchStrength compares querySlug with the slug of the location
// label and of the base city and returns the stronger result: exact equality
// scores LocationExact, containment ("manchester" in "greater-manchester")
// scores LocationPartial.
func (s *Scorer) LocationMatchStrength(querySlug string, loc Location) float64 {
	if querySlug == "" {
		return 0
	}
	best := 0.0
	for _, field := range []string{loc.Label, loc.BaseCity} {
		stored := textnorm.ToSlug(field)
		if stored == "" {
			continue
		}
		var v float64
		switch {
		case stored == querySlug:
			v = s.cfg.LocationExact
		case strings.Contains(stored, querySlug):
			v = s.cfg.LocationPartial
		}
		if v > best {
			best = v
		}
	}
	return best
}

// Score computes both axes at once. Empty slugs score 0 on their axis.
func (s *Scorer) Score(categorySlug, locationSlug string, categories []string, loc Location) Result {
	return Result{
		CategoryMatch: s.CategoryMatchStrength(categorySlug, categories),
		LocationMatch: s.LocationMatchStrength(locationSlug, loc),
	}
}
