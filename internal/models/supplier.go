// internal/models/supplier.go
package models

import "time"

type PlanType string

const (
	PlanFree    PlanType = "free"
	PlanPro     PlanType = "pro"
	PlanPremium PlanType = "premium"
)

// Supplier is a published or draft business listing. Read-only to discovery.
type Supplier struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	BusinessName     string    `json:"businessName"`
	ShortDescription string    `json:"shortDescription"`
	About            string    `json:"about"`
	Services         []string  `json:"services"`
	Categories       []string  `json:"categories"`
	LocationLabel    string    `json:"locationLabel"`
	BaseCity         string    `json:"baseCity"`
	IsPublished      bool      `json:"isPublished"`
	IsVerified       bool      `json:"isVerified"`
	PlanType         PlanType  `json:"planType"`
	ReviewRating     float64   `json:"reviewRating"`
	ReviewCount      int       `json:"reviewCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type ImageType string

const (
	ImageHero    ImageType = "hero"
	ImageGallery ImageType = "gallery"
)

type SupplierImage struct {
	SupplierID string    `json:"supplierId"`
	Type       ImageType `json:"type"`
	Path       string    `json:"path"`
	SortOrder  int       `json:"sortOrder"`
}
