// Package query turns a structured property filter set into an Elasticsearch
// search body: free text scores in the must clause, every other filter lives
// in the filter clause and never touches relevance, and a fixed aggregation
// bundle rides along on every request so facet counts stay in sync with the
// result set without a second round trip.
package query

import (
	"amlak-search/internal/models"
)

// Aggregation names, shared with the backend response decoder.
const (
	AggPriceRanges = "price_ranges"
	AggAreaRanges  = "area_ranges"
	AggBedrooms    = "bedrooms"
	AggBathrooms   = "bathrooms"
	AggAvgPrice    = "avg_price"
	AggAvgArea     = "avg_area"
	AggYearBuilt   = "year_built"
)

// Build maps a PropertySearchQuery into an Elasticsearch request body.
// With no text and no filters the query degrades to match_all; the
// aggregation bundle is attached unconditionally.
func Build(q *models.PropertySearchQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Text != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q.Text,
				"fields":    []string{"title^3", "description"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		})
	}

	if q.PropertyType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"property_type": q.PropertyType},
		})
	}
	if q.Location != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"location": q.Location},
		})
	}

	if c := intRangeClause("bedrooms", q.Bedrooms); c != nil {
		filterClauses = append(filterClauses, c)
	}
	if c := intRangeClause("bathrooms", q.Bathrooms); c != nil {
		filterClauses = append(filterClauses, c)
	}
	if c := intRangeClause("area", q.Area); c != nil {
		filterClauses = append(filterClauses, c)
	}
	if c := priceRangeClause(q.Price); c != nil {
		filterClauses = append(filterClauses, c)
	}

	for _, feature := range q.Features {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"features": feature},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"aggs": aggregationBundle(),
	}

	if sort := sortClause(q); sort != nil {
		body["sort"] = sort
	}

	return body
}

func intRangeClause(field string, r *models.IntRange) map[string]interface{} {
	if r == nil || (r.Min == nil && r.Max == nil) {
		return nil
	}
	bounds := map[string]interface{}{}
	if r.Min != nil {
		bounds["gte"] = *r.Min
	}
	if r.Max != nil {
		bounds["lte"] = *r.Max
	}
	return map[string]interface{}{
		"range": map[string]interface{}{field: bounds},
	}
}

func priceRangeClause(r *models.PriceRange) map[string]interface{} {
	if r == nil || (r.Min == nil && r.Max == nil) {
		return nil
	}
	bounds := map[string]interface{}{}
	if r.Min != nil {
		bounds["gte"] = *r.Min
	}
	if r.Max != nil {
		bounds["lte"] = *r.Max
	}
	return map[string]interface{}{
		"range": map[string]interface{}{"price": bounds},
	}
}

// sortClause selects the explicit sort. For relevance the score sort is only
// emitted when free text is present; without text there is nothing to score
// and the ordering is left to the backend default. That fallback is inherited
// behavior, kept deliberately (see DESIGN.md).
func sortClause(q *models.PropertySearchQuery) []map[string]interface{} {
	order := q.SortOrder
	if order != models.OrderAsc && order != models.OrderDesc {
		order = models.OrderDesc
	}

	switch q.SortBy {
	case models.SortRelevance, "":
		if q.Text != "" {
			return []map[string]interface{}{{"_score": "desc"}}
		}
		return nil
	case models.SortPrice:
		return []map[string]interface{}{{"price": order}}
	case models.SortDate, models.SortCreatedAt:
		return []map[string]interface{}{{"created_at": order}}
	case models.SortArea:
		return []map[string]interface{}{{"area": order}}
	default:
		return nil
	}
}

// aggregationBundle is the facet request attached to every search: five fixed
// price bands, five fixed area bands, bedroom/bathroom term buckets with an
// explicit missing bucket, averages, and a 5-year construction histogram.
func aggregationBundle() map[string]interface{} {
	return map[string]interface{}{
		AggPriceRanges: map[string]interface{}{
			"range": map[string]interface{}{
				"field": "price",
				"ranges": []map[string]interface{}{
					{"to": 500_000_000.0},
					{"from": 500_000_000.0, "to": 1_000_000_000.0},
					{"from": 1_000_000_000.0, "to": 2_000_000_000.0},
					{"from": 2_000_000_000.0, "to": 5_000_000_000.0},
					{"from": 5_000_000_000.0},
				},
			},
		},
		AggAreaRanges: map[string]interface{}{
			"range": map[string]interface{}{
				"field": "area",
				"ranges": []map[string]interface{}{
					{"to": 50.0},
					{"from": 50.0, "to": 100.0},
					{"from": 100.0, "to": 150.0},
					{"from": 150.0, "to": 250.0},
					{"from": 250.0},
				},
			},
		},
		AggBedrooms: map[string]interface{}{
			"terms": map[string]interface{}{
				"field":   "bedrooms",
				"size":    10,
				"order":   map[string]interface{}{"_key": "asc"},
				"missing": -1,
			},
		},
		AggBathrooms: map[string]interface{}{
			"terms": map[string]interface{}{
				"field":   "bathrooms",
				"size":    10,
				"order":   map[string]interface{}{"_key": "asc"},
				"missing": -1,
			},
		},
		AggAvgPrice: map[string]interface{}{
			"avg": map[string]interface{}{"field": "price"},
		},
		AggAvgArea: map[string]interface{}{
			"avg": map[string]interface{}{"field": "area"},
		},
		AggYearBuilt: map[string]interface{}{
			"histogram": map[string]interface{}{
				"field":    "year_built",
				"interval": 5,
			},
		},
	}
}
