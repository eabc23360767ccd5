package pipeline

import (
	"context"
	"strings"

	"marketplace-discovery/internal/common/errors"
	"marketplace-discovery/internal/discovery/textnorm"
	"marketplace-discovery/internal/models"
)

// Landing is an SEO slug split into its category and location parts.
type Landing struct {
	CategorySlug string `json:"categorySlug,omitempty"`
	LocationSlug string `json:"locationSlug,omitempty"`
}

// ResolveLanding splits a combined SEO slug such as
// "wedding-photographers-in-greater-manchester". The longest known location
// slug that ends the combined slug wins; a trailing "-in" is dropped from
// the remainder, which becomes the category. Without a location hit the
// whole slug is the category.
func (p *Pipeline) ResolveLanding(ctx context.Context, slug string) (Landing, error) {
	combined := textnorm.ToSlug(slug)
	if combined == "" {
		return Landing{}, errors.NewValidationError("landing slug is required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	defer cancel()

	locations, err := p.store.Locations(ctx)
	if err != nil {
		return Landing{}, errors.NewUpstreamReadError("locations", err)
	}

	best := ""
	for _, loc := range locations {
		if loc.Slug == "" || len(loc.Slug) <= len(best) {
			continue
		}
		if combined == loc.Slug || strings.HasSuffix(combined, "-"+loc.Slug) {
			best = loc.Slug
		}
	}
	if best == "" {
		return Landing{CategorySlug: combined}, nil
	}

	prefix := strings.TrimSuffix(strings.TrimSuffix(combined, best), "-")
	prefix = strings.TrimSuffix(prefix, "-in")
	if prefix == "in" {
		prefix = ""
	}
	return Landing{CategorySlug: prefix, LocationSlug: best}, nil
}

// DiscoverLanding resolves slug and runs the resulting listing query.
func (p *Pipeline) DiscoverLanding(ctx context.Context, slug string, page, pageSize int) (*models.ListingPage, error) {
	landing, err := p.ResolveLanding(ctx, slug)
	if err != nil {
		return nil, err
	}
	return p.Discover(ctx, Query{
		CategorySlug: landing.CategorySlug,
		LocationSlug: landing.LocationSlug,
		Page:         page,
		PageSize:     pageSize,
	})
}
