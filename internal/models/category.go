// internal/models/category.go
package models

type Category struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// Location is a known location slug used for SEO landing resolution.
type Location struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}
