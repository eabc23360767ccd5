// Package store reads the supplier catalogue for discovery. Every method is
// a read; nothing in discovery writes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"

	"marketplace-discovery/internal/models"
)

// ResponseUnit is the unit of median_response_time in the aggregate view.
type ResponseUnit string

const (
	ResponseSeconds ResponseUnit = "seconds"
	ResponseMinutes ResponseUnit = "minutes"
)

// CandidateFilter bounds a batched read. IDs, when set, restricts the
// candidate set to those suppliers (free-text prefilter). CategorySlug
// restricts it to suppliers listed under that category, so the limit
// applies to relevant suppliers only.
type CandidateFilter struct {
	IDs          []string
	CategorySlug string
	Limit        int
}

type Postgres struct {
	db           *sql.DB
	responseUnit ResponseUnit
}

func NewPostgres(db *sql.DB, unit ResponseUnit) *Postgres {
	if unit == "" {
		unit = ResponseSeconds
	}
	return &Postgres{db: db, responseUnit: unit}
}

func (p *Postgres) scoped(base, alias string, f CandidateFilter) (string, []interface{}) {
	var filters []string
	args := []interface{}{f.Limit}
	if f.IDs != nil {
		args = append(args, pq.Array(f.IDs))
		filters = append(filters, fmt.Sprintf(idFilter, len(args)))
	}
	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		filters = append(filters, fmt.Sprintf(categoryFilter, len(args)))
	}
	filter := strings.Join(filters, "\n\t")
	q := base + fmt.Sprintf("\n\tWHERE %s.%s IN (", alias, keyColumn(alias)) + fmt.Sprintf(candidateSet, filter) + ")"
	return q, args
}

func keyColumn(alias string) string {
	if alias == "s" {
		return "id"
	}
	return "supplier_id"
}

// PublishedSuppliers returns the candidate suppliers with review aggregates.
func (p *Postgres) PublishedSuppliers(ctx context.Context, f CandidateFilter) ([]models.Supplier, error) {
	q, args := p.scoped(selectSuppliers, "s", f)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	var out []models.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppliers: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSupplier(row scanner) (models.Supplier, error) {
	var s models.Supplier
	var plan string
	var services, categories pq.StringArray
	err := row.Scan(
		&s.ID, &s.Slug, &s.BusinessName,
		&s.ShortDescription, &s.About,
		&services, &categories,
		&s.LocationLabel, &s.BaseCity,
		&s.IsPublished, &s.IsVerified, &plan,
		&s.ReviewRating, &s.ReviewCount,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return s, fmt.Errorf("scan supplier: %w", err)
	}
	s.Services = []string(services)
	s.Categories = []string(categories)
	s.PlanType = models.PlanType(plan)
	return s, nil
}

// Images returns every image of the candidate set ordered by supplier and position.
func (p *Postgres) Images(ctx context.Context, f CandidateFilter) ([]models.SupplierImage, error) {
	q, args := p.scoped(selectImages, "i", f)
	rows, err := p.db.QueryContext(ctx, q+"\n\tORDER BY i.supplier_id, i.sort_order", args...)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()
	return scanImages(rows)
}

func scanImages(rows *sql.Rows) ([]models.SupplierImage, error) {
	var out []models.SupplierImage
	for rows.Next() {
		var img models.SupplierImage
		var typ string
		if err := rows.Scan(&img.SupplierID, &typ, &img.Path, &img.SortOrder); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.Type = models.ImageType(typ)
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return out, nil
}

// Aggregates returns the 30-day rows of the candidate set keyed by supplier.
// Suppliers without a row are simply absent.
func (p *Postgres) Aggregates(ctx context.Context, f CandidateFilter) (map[string]models.PerformanceAggregate, error) {
	q, args := p.scoped(selectAggregates, "a", f)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.PerformanceAggregate)
	for rows.Next() {
		var a models.PerformanceAggregate
		var rate, median sql.NullFloat64
		var lastQuote, lastActive sql.NullTime
		if err := rows.Scan(
			&a.SupplierID, &a.InvitesCount, &a.QuotesSent, &a.QuotesAccepted,
			&rate, &median, &lastQuote, &lastActive,
		); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		a.AcceptanceRate = rate.Float64
		if median.Valid {
			seconds := median.Float64
			if p.responseUnit == ResponseMinutes {
				seconds *= 60
			}
			a.MedianResponseSeconds = &seconds
		}
		a.LastQuoteSentAt = nullTime(lastQuote)
		a.LastActiveAt = nullTime(lastActive)
		out[a.SupplierID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregates: %w", err)
	}
	return out, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// RankFeatures returns precomputed feature rows keyed by supplier. NULL
// columns scan as NaN so the quality scorer rejects the row.
func (p *Postgres) RankFeatures(ctx context.Context, f CandidateFilter) (map[string]models.RankFeatures, error) {
	q, args := p.scoped(selectRankFeatures, "f", f)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query rank features: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.RankFeatures)
	for rows.Next() {
		var id string
		var v [5]sql.NullFloat64
		if err := rows.Scan(&id, &v[0], &v[1], &v[2], &v[3], &v[4]); err != nil {
			return nil, fmt.Errorf("scan rank features: %w", err)
		}
		out[id] = models.RankFeatures{
			SupplierID:         id,
			SmoothedAcceptance: orNaN(v[0]),
			ResponseScore:      orNaN(v[1]),
			ActivityScore:      orNaN(v[2]),
			VolumeScore:        orNaN(v[3]),
			BaseQuality:        orNaN(v[4]),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rank features: %w", err)
	}
	return out, nil
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// AcceptanceBaseline reads the latest marketplace acceptance rate.
func (p *Postgres) AcceptanceBaseline(ctx context.Context) (float64, bool, error) {
	var rate sql.NullFloat64
	err := p.db.QueryRowContext(ctx, selectBaseline).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query baseline: %w", err)
	}
	return rate.Float64, rate.Valid, nil
}

// ActiveCategory returns the active category for slug, or nil when none exists.
func (p *Postgres) ActiveCategory(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := p.db.QueryRowContext(ctx, selectActiveCategory, slug).Scan(&c.Slug, &c.Name, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

// Locations returns known locations, longest slug first.
func (p *Postgres) Locations(ctx context.Context) ([]models.Location, error) {
	rows, err := p.db.QueryContext(ctx, selectLocations)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.Slug, &l.Name); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return out, nil
}

// Supplier loads one supplier regardless of its publish flag, or nil.
func (p *Postgres) Supplier(ctx context.Context, id string) (*models.Supplier, error) {
	row := p.db.QueryRowContext(ctx, selectSuppliers+"\n\tWHERE s.id = $1", id)
	s, err := scanSupplier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SupplierImages loads the images of one supplier.
func (p *Postgres) SupplierImages(ctx context.Context, id string) ([]models.SupplierImage, error) {
	rows, err := p.db.QueryContext(ctx, selectImages+"\n\tWHERE i.supplier_id = $1\n\tORDER BY i.sort_order", id)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()
	return scanImages(rows)
}
