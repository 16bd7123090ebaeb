// internal/models/search.go
package models

// IntRange is a numeric filter range. A nil bound means open-ended on that
// side; when both bounds are set, Min <= Max holds.
type IntRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// PriceRange carries money bounds, denominated in a single currency end to end.
type PriceRange struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// ParsedQuery is the structured filter set extracted from free-form Persian
// text. Immutable value, produced fresh per parse.
type ParsedQuery struct {
	PropertyType string      `json:"propertyType,omitempty"`
	Bedrooms     *IntRange   `json:"bedrooms,omitempty"`
	Bathrooms    *IntRange   `json:"bathrooms,omitempty"`
	Price        *PriceRange `json:"price,omitempty"`
	Area         *IntRange   `json:"area,omitempty"`
	Features     []string    `json:"features,omitempty"`
	Location     string      `json:"location,omitempty"`
}

// Sort fields accepted by PropertySearchQuery.
const (
	SortRelevance = "relevance"
	SortPrice     = "price"
	SortDate      = "date"
	SortArea      = "area"
	SortCreatedAt = "created_at"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// PropertySearchQuery is the wire-level structured filter set handed to the
// query builder.
type PropertySearchQuery struct {
	Text         string      `json:"text,omitempty"`
	Page         int         `json:"page"`
	PageSize     int         `json:"pageSize"`
	SortBy       string      `json:"sortBy,omitempty"`
	SortOrder    string      `json:"sortOrder,omitempty"`
	PropertyType string      `json:"propertyType,omitempty"`
	Bedrooms     *IntRange   `json:"bedrooms,omitempty"`
	Bathrooms    *IntRange   `json:"bathrooms,omitempty"`
	Price        *PriceRange `json:"price,omitempty"`
	Area         *IntRange   `json:"area,omitempty"`
	Features     []string    `json:"features,omitempty"`
	Location     string      `json:"location,omitempty"`
}

// Property is the normalized result shape handed to the caller. Missing
// numeric fields default to zero; Images is always a non-nil slice.
type Property struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	PropertyType string   `json:"propertyType,omitempty"`
	Price        float64  `json:"price"`
	Area         float64  `json:"area"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	YearBuilt    int      `json:"yearBuilt,omitempty"`
	Location     string   `json:"location,omitempty"`
	Features     []string `json:"features,omitempty"`
	Images       []string `json:"images"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}

// PagedResult is the outcome of an executed search.
type PagedResult struct {
	Results    []Property `json:"results"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
}
