package pipeline

import (
	"strings"
	"time"

	"marketplace-discovery/internal/discovery/textnorm"
	"marketplace-discovery/internal/models"
)

func (p *Pipeline) paginate(q Query, kind models.QueryKind, snap *snapshot, ranked []candidate, now time.Time) *models.ListingPage {
	total := len(ranked)
	page := &models.ListingPage{
		Kind:       kind,
		Items:      []models.SupplierCard{},
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
		Term:       q.Term,
	}

	if q.CategorySlug != "" {
		ref := &models.SlugRef{Slug: q.CategorySlug, Name: textnorm.ToTitle(q.CategorySlug)}
		if snap.category != nil && snap.category.Name != "" {
			ref.Name = snap.category.Name
		}
		page.Category = ref
	}
	if q.LocationSlug != "" {
		page.Location = &models.SlugRef{Slug: q.LocationSlug, Name: textnorm.ToTitle(q.LocationSlug)}
	}

	from := q.offset()
	if from < 0 || from >= total {
		return page
	}
	to := from + q.PageSize
	if to > total {
		to = total
	}
	for _, c := range ranked[from:to] {
		page.Items = append(page.Items, p.card(c, kind, snap.images[c.supplier.ID], now))
	}
	return page
}

func (p *Pipeline) card(c candidate, kind models.QueryKind, images []models.SupplierImage, now time.Time) models.SupplierCard {
	s := c.supplier
	categories := make([]string, len(s.Categories))
	copy(categories, s.Categories)

	card := models.SupplierCard{
		ID:               s.ID,
		Slug:             s.Slug,
		Name:             s.BusinessName,
		ShortDescription: s.ShortDescription,
		LocationLabel:    s.LocationLabel,
		Categories:       categories,
		HeroImageURL:     p.imageURL(heroPath(images)),
		Badges:           p.quality.Badges(c.agg, now),
		ReviewRating:     s.ReviewRating,
		ReviewCount:      s.ReviewCount,
		IsVerified:       s.IsVerified,
	}
	if kind.Scored() {
		card.RankHint = c.rank.Label
	}
	return card
}

// heroPath returns the path of the hero image with the lowest sort order.
func heroPath(images []models.SupplierImage) string {
	var best *models.SupplierImage
	for i := range images {
		img := &images[i]
		if img.Type != models.ImageHero || img.Path == "" {
			continue
		}
		if best == nil || img.SortOrder < best.SortOrder {
			best = img
		}
	}
	if best == nil {
		return ""
	}
	return best.Path
}

func (p *Pipeline) imageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || p.cfg.ImageBaseURL == "" {
		return path
	}
	return strings.TrimRight(p.cfg.ImageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
