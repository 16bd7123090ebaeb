package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amlak-search/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestAdvanceFullFlow(t *testing.T) {
	state := models.NewSearchState()
	state.Query = "آپارتمان"

	state = Advance(state, models.SearchSuggestion{
		Type:        models.SuggestionPropertyType,
		DisplayText: "آپارتمان",
		Query:       "آپارتمان",
		Filter:      &models.FilterDescriptor{Field: "property_type", Value: "apartment"},
	})
	require.Equal(t, models.StageBedrooms, state.Stage)
	assert.Equal(t, "apartment", state.PropertyType)

	state = Advance(state, models.SearchSuggestion{
		Type:        models.SuggestionBedrooms,
		DisplayText: "۲ خوابه",
	})
	require.Equal(t, models.StagePrice, state.Stage)
	require.NotNil(t, state.Bedrooms)
	assert.Equal(t, 2, *state.Bedrooms)

	state = Advance(state, models.SearchSuggestion{
		Type:        models.SuggestionPriceRange,
		DisplayText: "تا 2 میلیارد",
		Filter:      &models.FilterDescriptor{Field: "price", Max: floatPtr(2_000_000_000)},
	})
	require.Equal(t, models.StageComplete, state.Stage)
	assert.Nil(t, state.MinPrice)
	require.NotNil(t, state.MaxPrice)
	assert.Equal(t, float64(2_000_000_000), *state.MaxPrice)

	assert.Equal(t, "آپارتمان 2 خوابه تا 2 میلیارد", ComposedQuery(state))
}

func TestAdvanceRejectsOutOfStageSuggestions(t *testing.T) {
	tests := []struct {
		name  string
		stage string
		sType string
	}{
		{"price suggestion at first stage", models.StagePropertyType, models.SuggestionPriceRange},
		{"property type after commit", models.StageBedrooms, models.SuggestionPropertyType},
		{"bedrooms at price stage", models.StagePrice, models.SuggestionBedrooms},
		{"anything after complete", models.StageComplete, models.SuggestionPropertyType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.NewSearchState()
			state.Stage = tt.stage

			next := Advance(state, models.SearchSuggestion{Type: tt.sType, DisplayText: "3 خوابه"})

			assert.Equal(t, state, next)
		})
	}
}

func TestAdvanceBedroomsWithoutNumberKeepsState(t *testing.T) {
	state := models.NewSearchState()
	state.Stage = models.StageBedrooms
	state.PropertyType = "villa"

	next := Advance(state, models.SearchSuggestion{
		Type:        models.SuggestionBedrooms,
		DisplayText: "خوابه",
	})

	assert.Equal(t, models.StageBedrooms, next.Stage)
	assert.Nil(t, next.Bedrooms)
}

func TestAdvancePropertyTypeFallsBackToQuery(t *testing.T) {
	state := models.NewSearchState()

	next := Advance(state, models.SearchSuggestion{
		Type:  models.SuggestionPropertyType,
		Query: "ویلا",
	})

	assert.Equal(t, "ویلا", next.PropertyType)
	assert.Equal(t, models.StageBedrooms, next.Stage)
}

func TestResetClearsSelectionsKeepsQuery(t *testing.T) {
	bedrooms := 3
	state := models.SearchState{
		Query:        "ویلا در شمال",
		Stage:        models.StageComplete,
		PropertyType: "villa",
		Bedrooms:     &bedrooms,
		MaxPrice:     floatPtr(5_000_000_000),
	}

	next := Reset(state)

	assert.Equal(t, models.StagePropertyType, next.Stage)
	assert.Equal(t, "ویلا در شمال", next.Query)
	assert.Empty(t, next.PropertyType)
	assert.Nil(t, next.Bedrooms)
	assert.Nil(t, next.MinPrice)
	assert.Nil(t, next.MaxPrice)
}

func TestComposedQueryPartialSelections(t *testing.T) {
	bedrooms := 3
	tests := []struct {
		name     string
		state    models.SearchState
		expected string
	}{
		{
			name:     "empty state",
			state:    models.NewSearchState(),
			expected: "",
		},
		{
			name:     "type only",
			state:    models.SearchState{PropertyType: "house"},
			expected: "خانه",
		},
		{
			name:     "type and bedrooms",
			state:    models.SearchState{PropertyType: "villa", Bedrooms: &bedrooms},
			expected: "ویلا 3 خوابه",
		},
		{
			name: "bounded price",
			state: models.SearchState{
				PropertyType: "apartment",
				MinPrice:     floatPtr(1_000_000_000),
				MaxPrice:     floatPtr(3_000_000_000),
			},
			expected: "آپارتمان بین 1 میلیارد تا 3 میلیارد",
		},
		{
			name:     "unknown canonical type passes through",
			state:    models.SearchState{PropertyType: "warehouse"},
			expected: "warehouse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComposedQuery(tt.state))
		})
	}
}
