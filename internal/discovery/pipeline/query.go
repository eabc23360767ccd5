package pipeline

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"marketplace-discovery/internal/common/errors"
	"marketplace-discovery/internal/discovery/textnorm"
	"marketplace-discovery/internal/models"
)

const (
	minTermLength = 2
	maxTermLength = 100
)

// Query describes one listing view. CategorySlug and LocationSlug may be
// combined; Term is free-text search and excludes both.
type Query struct {
	CategorySlug string `json:"categorySlug,omitempty"`
	LocationSlug string `json:"locationSlug,omitempty"`
	Term         string `json:"term,omitempty"`
	Page         int    `json:"page,omitempty"`
	PageSize     int    `json:"pageSize,omitempty"`
}

// Kind reports which listing view the query serves. Call on a normalised query.
func (q Query) Kind() models.QueryKind {
	switch {
	case q.Term != "":
		return models.QueryKindSearch
	case q.CategorySlug != "" && q.LocationSlug != "":
		return models.QueryKindCategoryLocation
	case q.CategorySlug != "":
		return models.QueryKindCategory
	default:
		return models.QueryKindLocation
	}
}

func (q Query) offset() int {
	return (q.Page - 1) * q.PageSize
}

// normalize validates q and returns it with slugs canonicalised and
// pagination clamped into range.
func (p *Pipeline) normalize(q Query) (Query, error) {
	out := Query{
		Term:     strings.TrimSpace(q.Term),
		Page:     q.Page,
		PageSize: q.PageSize,
	}

	rawCategory := strings.TrimSpace(q.CategorySlug)
	rawLocation := strings.TrimSpace(q.LocationSlug)
	out.CategorySlug = textnorm.ToSlug(rawCategory)
	out.LocationSlug = textnorm.ToSlug(rawLocation)

	if rawCategory != "" && out.CategorySlug == "" {
		return Query{}, errors.NewValidationError(fmt.Sprintf("category slug %q has no usable characters", rawCategory))
	}
	if rawLocation != "" && out.LocationSlug == "" {
		return Query{}, errors.NewValidationError(fmt.Sprintf("location slug %q has no usable characters", rawLocation))
	}

	if out.Term != "" {
		n := utf8.RuneCountInString(out.Term)
		if n < minTermLength || n > maxTermLength {
			return Query{}, errors.NewValidationError(
				fmt.Sprintf("search term must be between %d and %d characters", minTermLength, maxTermLength))
		}
		if out.CategorySlug != "" || out.LocationSlug != "" {
			return Query{}, errors.NewValidationError("search term cannot be combined with category or location")
		}
	}

	if out.Term == "" && out.CategorySlug == "" && out.LocationSlug == "" {
		return Query{}, errors.NewValidationError("one of category, location or search term is required")
	}

	if out.Page < 1 {
		out.Page = 1
	}
	switch {
	case out.PageSize < 1:
		out.PageSize = p.cfg.DefaultPageSize
	case out.PageSize > p.cfg.MaxPageSize:
		out.PageSize = p.cfg.MaxPageSize
	}
	// keeps offset()+PageSize within int
	if maxPage := math.MaxInt/out.PageSize - 1; out.Page > maxPage {
		out.Page = maxPage
	}
	return out, nil
}
