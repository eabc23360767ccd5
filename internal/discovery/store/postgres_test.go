package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-discovery/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var (
	created = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	updated = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
)

func newMockStore(t *testing.T, unit ResponseUnit) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db, unit), mock
}

var supplierColumns = []string{
	"id", "slug", "business_name", "short_description", "about",
	"services", "categories", "location_label", "base_city",
	"is_published", "is_verified", "plan_type",
	"rating", "review_count", "created_at", "updated_at",
}

// ==========================
// Tests
// ==========================

func TestPublishedSuppliers(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)

	rows := sqlmock.NewRows(supplierColumns).
		AddRow("sup-a", "northern-light", "Northern Light", "Documentary weddings", "About us",
			"{Weddings,Albums}", "{Photographers}", "Manchester", "Manchester",
			true, true, "pro", 4.8, int64(12), created, updated)

	mock.ExpectQuery(regexp.QuoteMeta("FROM suppliers s LEFT JOIN")).
		WithArgs(500).
		WillReturnRows(rows)

	got, err := p.PublishedSuppliers(context.Background(), CandidateFilter{Limit: 500})
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "sup-a", s.ID)
	assert.Equal(t, []string{"Weddings", "Albums"}, s.Services)
	assert.Equal(t, []string{"Photographers"}, s.Categories)
	assert.Equal(t, models.PlanPro, s.PlanType)
	assert.Equal(t, 12, s.ReviewCount)
	assert.InDelta(t, 4.8, s.ReviewRating, 1e-9)
	assert.True(t, s.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishedSuppliers_IDFilter(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)

	mock.ExpectQuery(`WHERE s.id IN \( SELECT c.id FROM suppliers c WHERE c.is_published = TRUE AND c.id = ANY\(\$2\)`).
		WithArgs(50, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(supplierColumns))

	got, err := p.PublishedSuppliers(context.Background(), CandidateFilter{IDs: []string{"a", "b"}, Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishedSuppliers_CategoryFilter(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)

	mock.ExpectQuery(`WHERE c.is_published = TRUE AND EXISTS \( SELECT 1 FROM unnest\(c.categories\) AS cat\(label\) ` +
		`LEFT JOIN categories k ON lower\(k.name\) = lower\(cat.label\) WHERE k.slug = \$2 ` +
		`OR trim\(both '-' from regexp_replace\(lower\(cat.label\), '\[\^a-z0-9\]\+', '-', 'g'\)\) = \$2\) ` +
		`ORDER BY c.updated_at DESC, c.id LIMIT \$1`).
		WithArgs(500, "photographers").
		WillReturnRows(sqlmock.NewRows(supplierColumns))

	_, err := p.PublishedSuppliers(context.Background(), CandidateFilter{CategorySlug: "photographers", Limit: 500})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImages_IDAndCategoryFilter(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)

	mock.ExpectQuery(`FROM supplier_images i WHERE i.supplier_id IN \( SELECT c.id FROM suppliers c ` +
		`WHERE c.is_published = TRUE AND c.id = ANY\(\$2\) AND EXISTS .* WHERE k.slug = \$3`).
		WithArgs(20, sqlmock.AnyArg(), "venues").
		WillReturnRows(sqlmock.NewRows([]string{"supplier_id", "type", "path", "sort_order"}))

	_, err := p.Images(context.Background(), CandidateFilter{IDs: []string{"v-1"}, CategorySlug: "venues", Limit: 20})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishedSuppliers_QueryError(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)
	mock.ExpectQuery("FROM suppliers s").WillReturnError(fmt.Errorf("connection reset by peer"))

	_, err := p.PublishedSuppliers(context.Background(), CandidateFilter{Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query suppliers")
}

func TestImages(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)

	mock.ExpectQuery(`FROM supplier_images i WHERE i.supplier_id IN .* ORDER BY i.supplier_id, i.sort_order`).
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows([]string{"supplier_id", "type", "path", "sort_order"}).
			AddRow("sup-a", "hero", "a/hero.jpg", 0).
			AddRow("sup-a", "gallery", "a/1.jpg", 1))

	got, err := p.Images(context.Background(), CandidateFilter{Limit: 500})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.ImageHero, got[0].Type)
	assert.Equal(t, "a/1.jpg", got[1].Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregates_NormalisesMinutes(t *testing.T) {
	p, mock := newMockStore(t, ResponseMinutes)
	lastActive := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM supplier_performance_30d a WHERE a.supplier_id IN`).
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows([]string{
			"supplier_id", "invites_count", "quotes_sent", "quotes_accepted",
			"acceptance_rate", "median_response_time", "last_quote_sent_at", "last_active_at",
		}).
			AddRow("sup-a", 20, 10, 4, 0.4, 90.0, lastActive, lastActive).
			AddRow("sup-b", 0, 0, 0, nil, nil, nil, nil))

	got, err := p.Aggregates(context.Background(), CandidateFilter{Limit: 500})
	require.NoError(t, err)
	require.Len(t, got, 2)

	a := got["sup-a"]
	require.NotNil(t, a.MedianResponseSeconds)
	assert.Equal(t, 5400.0, *a.MedianResponseSeconds)
	require.NotNil(t, a.LastActiveAt)
	assert.True(t, lastActive.Equal(*a.LastActiveAt))

	b := got["sup-b"]
	assert.Nil(t, b.MedianResponseSeconds)
	assert.Nil(t, b.LastActiveAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRankFeatures_NullsBecomeNaN(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)

	mock.ExpectQuery(`FROM supplier_rank_features f WHERE f.supplier_id IN`).
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows([]string{
			"supplier_id", "smoothed_acceptance", "response_score", "activity_score", "volume_score", "base_quality",
		}).
			AddRow("sup-a", 0.4, 0.9, 1.0, 0.5, 0.62).
			AddRow("sup-b", 0.4, nil, 1.0, 0.5, 0.62))

	got, err := p.RankFeatures(context.Background(), CandidateFilter{Limit: 500})
	require.NoError(t, err)
	assert.InDelta(t, 0.62, got["sup-a"].BaseQuality, 1e-9)
	assert.True(t, math.IsNaN(got["sup-b"].ResponseScore))
}

func TestAcceptanceBaseline(t *testing.T) {
	t.Run("latest row", func(t *testing.T) {
		p, mock := newMockStore(t, ResponseSeconds)
		mock.ExpectQuery(`FROM marketplace_performance_baseline_30d ORDER BY computed_at DESC LIMIT 1`).
			WillReturnRows(sqlmock.NewRows([]string{"acceptance_rate"}).AddRow(0.27))

		v, found, err := p.AcceptanceBaseline(context.Background())
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 0.27, v)
	})

	t.Run("no row", func(t *testing.T) {
		p, mock := newMockStore(t, ResponseSeconds)
		mock.ExpectQuery(`FROM marketplace_performance_baseline_30d`).WillReturnError(sql.ErrNoRows)

		_, found, err := p.AcceptanceBaseline(context.Background())
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("query error", func(t *testing.T) {
		p, mock := newMockStore(t, ResponseSeconds)
		mock.ExpectQuery(`FROM marketplace_performance_baseline_30d`).WillReturnError(fmt.Errorf("timeout"))

		_, _, err := p.AcceptanceBaseline(context.Background())
		assert.Error(t, err)
	})
}

func TestActiveCategory(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)

	mock.ExpectQuery(`FROM categories WHERE slug = \$1 AND is_active = TRUE`).
		WithArgs("photographers").
		WillReturnRows(sqlmock.NewRows([]string{"slug", "name", "is_active"}).AddRow("photographers", "Photographers", true))
	mock.ExpectQuery(`FROM categories`).
		WithArgs("retired").
		WillReturnError(sql.ErrNoRows)

	c, err := p.ActiveCategory(context.Background(), "photographers")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Photographers", c.Name)

	c, err = p.ActiveCategory(context.Background(), "retired")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocations(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)
	mock.ExpectQuery(`FROM locations ORDER BY length\(slug\) DESC, slug`).
		WillReturnRows(sqlmock.NewRows([]string{"slug", "name"}).
			AddRow("greater-manchester", "Greater Manchester").
			AddRow("leeds", "Leeds"))

	got, err := p.Locations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Location{
		{Slug: "greater-manchester", Name: "Greater Manchester"},
		{Slug: "leeds", Name: "Leeds"},
	}, got)
}

func TestSupplier(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)

	mock.ExpectQuery(`FROM suppliers s LEFT JOIN .* WHERE s.id = \$1`).
		WithArgs("sup-draft").
		WillReturnRows(sqlmock.NewRows(supplierColumns).
			AddRow("sup-draft", "draft", "Draft Co", "", "", "{}", "{}", "", "", false, false, "free", 0.0, int64(0), created, updated))
	mock.ExpectQuery(`FROM suppliers s LEFT JOIN .* WHERE s.id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	s, err := p.Supplier(context.Background(), "sup-draft")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.False(t, s.IsPublished)
	assert.Empty(t, s.Categories)

	s, err = p.Supplier(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSupplierImages(t *testing.T) {
	p, mock := newMockStore(t, ResponseSeconds)
	mock.ExpectQuery(`FROM supplier_images i WHERE i.supplier_id = \$1 ORDER BY i.sort_order`).
		WithArgs("sup-a").
		WillReturnRows(sqlmock.NewRows([]string{"supplier_id", "type", "path", "sort_order"}).
			AddRow("sup-a", "gallery", "a/1.jpg", 1))

	imgs, err := p.SupplierImages(context.Background(), "sup-a")
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, models.ImageGallery, imgs[0].Type)
}
