package store

// candidateSet selects the bounded, deterministic set of published suppliers
// a request may rank. Every batched read restricts itself to the same set so
// the reads can run concurrently without sharing ids.
const candidateSet = `
	SELECT c.id FROM suppliers c
	WHERE c.is_published = TRUE %s
	ORDER BY c.updated_at DESC, c.id
	LIMIT $1`

const idFilter = `AND c.id = ANY($%d)`

// categoryFilter keeps suppliers carrying a label for the category slug,
// either through the categories table or by slugging the label in SQL.
const categoryFilter = `AND EXISTS (
		SELECT 1 FROM unnest(c.categories) AS cat(label)
		LEFT JOIN categories k ON lower(k.name) = lower(cat.label)
		WHERE k.slug = $%[1]d
		   OR trim(both '-' from regexp_replace(lower(cat.label), '[^a-z0-9]+', '-', 'g')) = $%[1]d)`

const selectSuppliers = `
	SELECT s.id, s.slug, s.business_name,
	       COALESCE(s.short_description, ''), COALESCE(s.about, ''),
	       s.services, s.categories,
	       COALESCE(s.location_label, ''), COALESCE(s.base_city, ''),
	       s.is_published, s.is_verified, COALESCE(s.plan_type, 'free'),
	       COALESCE(r.rating, 0), COALESCE(r.review_count, 0),
	       s.created_at, s.updated_at
	FROM suppliers s
	LEFT JOIN (
		SELECT supplier_id, AVG(rating)::float8 AS rating, COUNT(*) AS review_count
		FROM supplier_reviews
		WHERE is_approved = TRUE
		GROUP BY supplier_id
	) r ON r.supplier_id = s.id`

const selectImages = `
	SELECT i.supplier_id, i.type, i.path, i.sort_order
	FROM supplier_images i`

const selectAggregates = `
	SELECT a.supplier_id, a.invites_count, a.quotes_sent, a.quotes_accepted,
	       a.acceptance_rate, a.median_response_time,
	       a.last_quote_sent_at, a.last_active_at
	FROM supplier_performance_30d a`

const selectRankFeatures = `
	SELECT f.supplier_id, f.smoothed_acceptance, f.response_score,
	       f.activity_score, f.volume_score, f.base_quality
	FROM supplier_rank_features f`

const selectBaseline = `
	SELECT acceptance_rate
	FROM marketplace_performance_baseline_30d
	ORDER BY computed_at DESC
	LIMIT 1`

const selectActiveCategory = `
	SELECT slug, name, is_active
	FROM categories
	WHERE slug = $1 AND is_active = TRUE`

const selectLocations = `
	SELECT slug, name
	FROM locations
	ORDER BY length(slug) DESC, slug`
