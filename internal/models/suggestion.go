// internal/models/suggestion.go
package models

// Suggestion types, in the order they rank within a merged response.
const (
	SuggestionPropertyType = "property_type"
	SuggestionBedrooms     = "bedrooms"
	SuggestionPriceRange   = "price_range"
	SuggestionFilter       = "filter"
	SuggestionCombination  = "combination"
	SuggestionProperty     = "property"
)

// FilterDescriptor pins a suggestion to the concrete backend filter it
// represents, so selecting it needs no re-parsing.
type FilterDescriptor struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Value string   `json:"value,omitempty"`
}

// SearchSuggestion is one entry of a suggestion list. Transient, generated
// fresh per request.
type SearchSuggestion struct {
	Type        string            `json:"type"`
	DisplayText string            `json:"displayText"`
	Query       string            `json:"query"`
	ResultCount *int64            `json:"resultCount,omitempty"`
	Filter      *FilterDescriptor `json:"filter,omitempty"`
}

// Guided search stages. Transitions run forward only; Reset returns to
// StagePropertyType.
const (
	StagePropertyType = "property_type"
	StageBedrooms     = "bedrooms"
	StagePrice        = "price"
	StageComplete     = "complete"
)

// SearchState is the per-session value owned by the caller. It is replaced
// wholesale on every transition, never mutated in place.
type SearchState struct {
	Query        string             `json:"query"`
	Stage        string             `json:"stage"`
	PropertyType string             `json:"propertyType,omitempty"`
	Bedrooms     *int               `json:"bedrooms,omitempty"`
	MinPrice     *float64           `json:"minPrice,omitempty"`
	MaxPrice     *float64           `json:"maxPrice,omitempty"`
	Suggestions  []SearchSuggestion `json:"suggestions"`
	Loading      bool               `json:"loading"`
}

// NewSearchState returns the initial state of a guided search interaction.
func NewSearchState() SearchState {
	return SearchState{
		Stage:       StagePropertyType,
		Suggestions: []SearchSuggestion{},
	}
}
