// internal/workers/discovery/rank-suppliers/models.go
package ranksuppliers

import "marketplace-discovery/internal/models"

// Input selects one listing view. LandingSlug is an SEO combined slug and
// cannot be mixed with the other selectors.
type Input struct {
	CategorySlug string `json:"categorySlug,omitempty"`
	LocationSlug string `json:"locationSlug,omitempty"`
	LandingSlug  string `json:"landingSlug,omitempty"`
	Term         string `json:"term,omitempty"`
	Page         int    `json:"page,omitempty"`
	PageSize     int    `json:"pageSize,omitempty"`
}

type Output struct {
	Result *models.ListingPage `json:"result"`
}

const inputSchema = `{
  "type": "object",
  "properties": {
    "categorySlug": {"type": "string", "maxLength": 200},
    "locationSlug": {"type": "string", "maxLength": 200},
    "landingSlug":  {"type": "string", "minLength": 1, "maxLength": 400},
    "term":         {"type": "string", "maxLength": 100},
    "page":         {"type": "integer", "minimum": 1, "maximum": 10000},
    "pageSize":     {"type": "integer", "minimum": 1, "maximum": 1000}
  },
  "anyOf": [
    {"required": ["categorySlug"]},
    {"required": ["locationSlug"]},
    {"required": ["landingSlug"]},
    {"required": ["term"]}
  ]
}`
