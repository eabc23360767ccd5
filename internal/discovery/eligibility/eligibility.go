// Package eligibility decides whether a supplier listing is complete enough
// to be shown on any public view.
package eligibility

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"marketplace-discovery/internal/models"
)

// Check names, in evaluation order.
const (
	CheckShortDescription = "shortDescription"
	CheckAbout            = "about"
	CheckCategories       = "categories"
	CheckLocation         = "location"
	CheckHeroImage        = "heroImage"
	CheckGalleryImages    = "galleryImages"
	CheckServices         = "services"
)

// AllChecks lists every check in the order reasons are reported.
var AllChecks = []string{
	CheckShortDescription,
	CheckAbout,
	CheckCategories,
	CheckLocation,
	CheckHeroImage,
	CheckGalleryImages,
	CheckServices,
}

type Config struct {
	Disabled           map[string]bool
	MinShortDesc       int
	MinAbout           int
	MinCategories      int
	MinLocation        int
	MinHeroImages      int
	MinGalleryImages   int
	MinDistinctService int
}

func DefaultConfig() Config {
	return Config{
		MinShortDesc:       30,
		MinAbout:           120,
		MinCategories:      1,
		MinLocation:        3,
		MinHeroImages:      1,
		MinGalleryImages:   2,
		MinDistinctService: 3,
	}
}

// Verdict is recomputed on every read and never cached.
type Verdict struct {
	CanPublish bool            `json:"canPublish"`
	Checks     map[string]bool `json:"checks"`
	Reasons    []string        `json:"reasons"`
}

// Gate evaluates listings against a fixed Config. Safe for concurrent use.
type Gate struct {
	cfg Config
}

func NewGate(cfg Config) (*Gate, error) {
	for name := range cfg.Disabled {
		if !isKnownCheck(name) {
			return nil, fmt.Errorf("unknown eligibility check %q", name)
		}
	}
	return &Gate{cfg: cfg}, nil
}

func isKnownCheck(name string) bool {
	for _, c := range AllChecks {
		if c == name {
			return true
		}
	}
	return false
}

// Evaluate runs every enabled check. CanPublish is true only when all of
// them pass; disabled checks are left out of Checks and never fail.
func (g *Gate) Evaluate(s models.Supplier, images []models.SupplierImage) Verdict {
	v := Verdict{CanPublish: true, Checks: make(map[string]bool, len(AllChecks)), Reasons: []string{}}

	var hero, gallery int
	for _, img := range images {
		switch img.Type {
		case models.ImageHero:
			hero++
		case models.ImageGallery:
			gallery++
		}
	}

	results := map[string]bool{
		CheckShortDescription: textLen(s.ShortDescription) >= g.cfg.MinShortDesc,
		CheckAbout:            textLen(s.About) >= g.cfg.MinAbout,
		CheckCategories:       nonEmpty(s.Categories) >= g.cfg.MinCategories,
		CheckLocation:         textLen(s.LocationLabel) >= g.cfg.MinLocation,
		CheckHeroImage:        hero >= g.cfg.MinHeroImages,
		CheckGalleryImages:    gallery >= g.cfg.MinGalleryImages,
		CheckServices:         distinctServices(s.Services) >= g.cfg.MinDistinctService,
	}

	for _, name := range AllChecks {
		if g.cfg.Disabled[name] {
			continue
		}
		ok := results[name]
		v.Checks[name] = ok
		if !ok {
			v.CanPublish = false
			v.Reasons = append(v.Reasons, g.reason(name))
		}
	}
	return v
}

func (g *Gate) reason(check string) string {
	switch check {
	case CheckShortDescription:
		return fmt.Sprintf("Short description must be at least %d characters.", g.cfg.MinShortDesc)
	case CheckAbout:
		return fmt.Sprintf("About section must be at least %d characters.", g.cfg.MinAbout)
	case CheckCategories:
		return plural(g.cfg.MinCategories, "Choose at least %d category.", "Choose at least %d categories.")
	case CheckLocation:
		return fmt.Sprintf("Location must be at least %d characters.", g.cfg.MinLocation)
	case CheckHeroImage:
		return plural(g.cfg.MinHeroImages, "Upload a hero image.", "Upload at least %d hero images.")
	case CheckGalleryImages:
		return plural(g.cfg.MinGalleryImages, "Upload at least %d gallery image.", "Upload at least %d gallery images.")
	case CheckServices:
		return plural(g.cfg.MinDistinctService, "Add at least %d service.", "Add at least %d distinct services.")
	}
	return ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		if strings.Contains(one, "%d") {
			return fmt.Sprintf(one, n)
		}
		return one
	}
	return fmt.Sprintf(many, n)
}

// textLen counts characters, not bytes, after trimming surrounding whitespace.
func textLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func nonEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func distinctServices(services []string) int {
	seen := make(map[string]struct{}, len(services))
	for _, svc := range services {
		key := strings.ToLower(strings.TrimSpace(svc))
		if key != "" {
			seen[key] = struct{}{}
		}
	}
	return len(seen)
}
