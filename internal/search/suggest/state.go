// internal/search/suggest/state.go
package suggest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"amlak-search/internal/models"
	"amlak-search/internal/search/normalize"
)

var numberPattern = regexp.MustCompile(`\d+`)

// Advance applies a selected suggestion to the state and returns the next
// state. Transitions only ever move forward along
// property_type -> bedrooms -> price -> complete; a suggestion that does not
// fit the current stage leaves the state unchanged. The input state is never
// mutated; callers replace their copy wholesale.
func Advance(state models.SearchState, s models.SearchSuggestion) models.SearchState {
	next := state
	next.Suggestions = []models.SearchSuggestion{}
	next.Loading = false

	switch {
	case state.Stage == models.StagePropertyType && s.Type == models.SuggestionPropertyType:
		if s.Filter != nil && s.Filter.Value != "" {
			next.PropertyType = s.Filter.Value
		} else {
			next.PropertyType = s.Query
		}
		next.Stage = models.StageBedrooms

	case state.Stage == models.StageBedrooms && s.Type == models.SuggestionBedrooms:
		n, ok := extractNumber(s.DisplayText)
		if !ok {
			return state
		}
		next.Bedrooms = &n
		next.Stage = models.StagePrice

	case state.Stage == models.StagePrice && s.Type == models.SuggestionPriceRange:
		if s.Filter != nil {
			next.MinPrice = s.Filter.Min
			next.MaxPrice = s.Filter.Max
		}
		next.Stage = models.StageComplete

	default:
		return state
	}

	return next
}

// Reset returns the interaction to the first stage with every staged
// selection cleared.
func Reset(state models.SearchState) models.SearchState {
	next := models.NewSearchState()
	next.Query = state.Query
	return next
}

// ComposedQuery renders the staged selections as the single display string
// that gets executed once the flow reaches complete.
func ComposedQuery(state models.SearchState) string {
	parts := []string{}
	if state.PropertyType != "" {
		parts = append(parts, persianPropertyType(state.PropertyType))
	}
	if state.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("%d خوابه", *state.Bedrooms))
	}
	if state.MinPrice != nil || state.MaxPrice != nil {
		parts = append(parts, formatPriceBounds(state.MinPrice, state.MaxPrice))
	}
	return strings.Join(parts, " ")
}

// extractNumber pulls the first integer out of suggestion text, tolerating
// embedded Persian digits.
func extractNumber(text string) (int, bool) {
	m := numberPattern.FindString(normalize.Digits(text))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

var persianPropertyTypes = map[string]string{
	"house":      "خانه",
	"apartment":  "آپارتمان",
	"villa":      "ویلا",
	"land":       "زمین",
	"demolition": "کلنگی",
}

func persianPropertyType(canonical string) string {
	if fa, ok := persianPropertyTypes[canonical]; ok {
		return fa
	}
	return canonical
}

// formatPriceBounds renders rial bounds in the unit a user would say them.
func formatPriceBounds(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("بین %s تا %s", formatRials(*min), formatRials(*max))
	case max != nil:
		return fmt.Sprintf("تا %s", formatRials(*max))
	case min != nil:
		return fmt.Sprintf("از %s", formatRials(*min))
	default:
		return ""
	}
}

func formatRials(v float64) string {
	switch {
	case v >= 1_000_000_000 && v == float64(int64(v/1_000_000_000))*1_000_000_000:
		return fmt.Sprintf("%d میلیارد", int64(v/1_000_000_000))
	case v >= 1_000_000:
		return fmt.Sprintf("%d میلیون", int64(v/1_000_000))
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
