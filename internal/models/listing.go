// internal/models/listing.go
package models

// SupplierCard is the canonical response item for every listing view.
type SupplierCard struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"shortDescription"`
	LocationLabel    string   `json:"locationLabel"`
	Categories       []string `json:"categories"`
	HeroImageURL     string   `json:"heroImageUrl,omitempty"`
	Badges           []string `json:"badges"`
	ReviewRating     float64  `json:"reviewRating"`
	ReviewCount      int      `json:"reviewCount"`
	RankHint         string   `json:"rankHint,omitempty"`
	IsVerified       bool     `json:"isVerified"`
}

type SlugRef struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ListingPage is one page of a listing view plus its pagination envelope.
type ListingPage struct {
	Kind       QueryKind      `json:"kind"`
	Items      []SupplierCard `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
	Category   *SlugRef       `json:"category,omitempty"`
	Location   *SlugRef       `json:"location,omitempty"`
	Term       string         `json:"term,omitempty"`
}
