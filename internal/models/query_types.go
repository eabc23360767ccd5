// internal/models/query_types.go
package models

// QueryKind identifies which public listing view a discovery query serves.
type QueryKind string

const (
	QueryKindCategory         QueryKind = "category"
	QueryKindLocation         QueryKind = "location"
	QueryKindCategoryLocation QueryKind = "category_location"
	QueryKindSearch           QueryKind = "search"
)

// Scored reports whether the kind runs match and quality scoring.
func (k QueryKind) Scored() bool {
	return k != QueryKindSearch
}
