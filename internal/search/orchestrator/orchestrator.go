// Package orchestrator ties text parsing, query building and backend
// execution into the single entry point the API layer calls.
package orchestrator

import (
	"context"
	"strings"
	"time"

	stderrors "amlak-search/internal/common/errors"
	"amlak-search/internal/common/logger"
	"amlak-search/internal/common/metrics"
	"amlak-search/internal/models"
	"amlak-search/internal/search/backend"
	"amlak-search/internal/search/normalize"
	"amlak-search/internal/search/parser"
	"amlak-search/internal/search/query"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Orchestrator executes structured and free-text property searches.
type Orchestrator struct {
	backend backend.Client
	opts    backend.SearchOptions
	logger  logger.Logger
}

func New(client backend.Client, opts backend.SearchOptions, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		backend: client,
		opts:    opts,
		logger:  log.WithFields(map[string]interface{}{"component": "search-orchestrator"}),
	}
}

// ExecuteText runs a search from raw Persian input: digits are normalized,
// filters are extracted, and the normalized text still rides along as the
// relevance clause.
func (o *Orchestrator) ExecuteText(ctx context.Context, text string, page, pageSize int, sortBy, sortOrder string) (*models.PagedResult, error) {
	normalized := strings.TrimSpace(normalize.Digits(text))
	parsed := parser.Parse(normalized)

	q := &models.PropertySearchQuery{
		Text:         normalized,
		Page:         page,
		PageSize:     pageSize,
		SortBy:       sortBy,
		SortOrder:    sortOrder,
		PropertyType: parsed.PropertyType,
		Bedrooms:     parsed.Bedrooms,
		Bathrooms:    parsed.Bathrooms,
		Price:        parsed.Price,
		Area:         parsed.Area,
		Features:     parsed.Features,
		Location:     parsed.Location,
	}
	return o.Execute(ctx, q)
}

// Execute runs a structured search and returns one normalized result page.
// Every failure comes back classified; callers can rely on CodeOf.
func (o *Orchestrator) Execute(ctx context.Context, q *models.PropertySearchQuery) (*models.PagedResult, error) {
	page, pageSize := normalizePaging(q.Page, q.PageSize)
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = models.SortRelevance
	}

	body := query.Build(q)
	body["from"] = (page - 1) * pageSize
	body["size"] = pageSize

	metrics.SearchesTotal.WithLabelValues(sortBy).Inc()
	start := time.Now()

	result, err := o.backend.Search(ctx, body, o.opts)
	metrics.SearchDuration.WithLabelValues(sortBy).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchErrors.WithLabelValues(string(stderrors.CodeOf(err))).Inc()
		if !stderrors.IsSilent(err) {
			o.logger.WithError(err).Error("search execution failed", map[string]interface{}{
				"sortBy":   sortBy,
				"page":     page,
				"pageSize": pageSize,
			})
		}
		return nil, err
	}

	properties := make([]models.Property, 0, len(result.Hits))
	for _, hit := range result.Hits {
		properties = append(properties, propertyFromHit(hit))
	}

	return &models.PagedResult{
		Results:    properties,
		Total:      result.Total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(result.Total, pageSize),
	}, nil
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 {
		return 0
	}
	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}
	return int(pages)
}

// propertyFromHit maps a raw document to the caller-facing shape. Backend
// documents are loosely typed; anything missing or malformed degrades to the
// zero value rather than failing the page.
func propertyFromHit(hit backend.Hit) models.Property {
	src := hit.Source
	return models.Property{
		ID:           hit.ID,
		Title:        stringField(src, "title"),
		Description:  stringField(src, "description"),
		PropertyType: stringField(src, "property_type"),
		Price:        floatField(src, "price"),
		Area:         floatField(src, "area"),
		Bedrooms:     intField(src, "bedrooms"),
		Bathrooms:    intField(src, "bathrooms"),
		YearBuilt:    intField(src, "year_built"),
		Location:     stringField(src, "location"),
		Features:     stringSliceField(src, "features"),
		Images:       imagesField(src),
		CreatedAt:    stringField(src, "created_at"),
	}
}

func stringField(src map[string]interface{}, key string) string {
	s, _ := src[key].(string)
	return s
}

func floatField(src map[string]interface{}, key string) float64 {
	switch v := src[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func intField(src map[string]interface{}, key string) int {
	return int(floatField(src, key))
}

func stringSliceField(src map[string]interface{}, key string) []string {
	raw, ok := src[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// imagesField is stricter than the other helpers: the contract guarantees a
// non-nil slice, and a bare string document field still becomes one entry.
func imagesField(src map[string]interface{}) []string {
	switch v := src["images"].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	default:
		return []string{}
	}
}
