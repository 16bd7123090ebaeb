// internal/search/backend/aggregations.go
package backend

import (
	"encoding/json"
	"fmt"

	"amlak-search/internal/search/query"
)

// RangeBucket is one band of a range aggregation. From/To mirror the request
// bounds; either may be absent on the outermost bands.
type RangeBucket struct {
	Key      string   `json:"key"`
	From     *float64 `json:"from,omitempty"`
	To       *float64 `json:"to,omitempty"`
	DocCount int64    `json:"doc_count"`
}

// TermBucket is one bucket of a terms aggregation. Key is numeric for the
// bedroom/bathroom facets; the explicit missing bucket arrives as -1.
type TermBucket struct {
	Key      float64 `json:"key"`
	DocCount int64   `json:"doc_count"`
}

// HistogramBucket is one interval of the year-built histogram.
type HistogramBucket struct {
	Key      float64 `json:"key"`
	DocCount int64   `json:"doc_count"`
}

// Aggregations is the typed facet payload of a search response. Each field is
// decoded from its named aggregation; unknown names are ignored.
type Aggregations struct {
	PriceRanges []RangeBucket
	AreaRanges  []RangeBucket
	Bedrooms    []TermBucket
	Bathrooms   []TermBucket
	AvgPrice    *float64
	AvgArea     *float64
	YearBuilt   []HistogramBucket
}

type rangeAggPayload struct {
	Buckets []RangeBucket `json:"buckets"`
}

type termsAggPayload struct {
	Buckets []TermBucket `json:"buckets"`
}

type histogramAggPayload struct {
	Buckets []HistogramBucket `json:"buckets"`
}

type avgAggPayload struct {
	Value *float64 `json:"value"`
}

// decodeAggregations parses the raw aggregations object into its typed form,
// handling each aggregation by its declared kind rather than ambient casts.
func decodeAggregations(raw map[string]json.RawMessage) (Aggregations, error) {
	var aggs Aggregations

	for name, payload := range raw {
		switch name {
		case query.AggPriceRanges:
			var p rangeAggPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return aggs, fmt.Errorf("decode %s aggregation: %w", name, err)
			}
			aggs.PriceRanges = p.Buckets
		case query.AggAreaRanges:
			var p rangeAggPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return aggs, fmt.Errorf("decode %s aggregation: %w", name, err)
			}
			aggs.AreaRanges = p.Buckets
		case query.AggBedrooms:
			var p termsAggPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return aggs, fmt.Errorf("decode %s aggregation: %w", name, err)
			}
			aggs.Bedrooms = p.Buckets
		case query.AggBathrooms:
			var p termsAggPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return aggs, fmt.Errorf("decode %s aggregation: %w", name, err)
			}
			aggs.Bathrooms = p.Buckets
		case query.AggAvgPrice:
			var p avgAggPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return aggs, fmt.Errorf("decode %s aggregation: %w", name, err)
			}
			aggs.AvgPrice = p.Value
		case query.AggAvgArea:
			var p avgAggPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return aggs, fmt.Errorf("decode %s aggregation: %w", name, err)
			}
			aggs.AvgArea = p.Value
		case query.AggYearBuilt:
			var p histogramAggPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return aggs, fmt.Errorf("decode %s aggregation: %w", name, err)
			}
			aggs.YearBuilt = p.Buckets
		}
	}

	return aggs, nil
}
