// Package suggest drives the guided search flow and free-text typeahead.
// Every fetch path here degrades to an empty or partial list on failure; no
// error ever crosses this package's boundary.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	stderrors "amlak-search/internal/common/errors"
	"amlak-search/internal/common/logger"
	"amlak-search/internal/common/metrics"
	"amlak-search/internal/models"
	"amlak-search/internal/search/backend"
	"amlak-search/internal/search/parser"
	"amlak-search/internal/search/query"
)

const (
	// minQueryLength gates every suggestion fetch.
	minQueryLength = 2
	// minLocationLength is the extra bar a query must clear to be treated
	// as a location candidate for combination suggestions.
	minLocationLength = 4

	propertyTypeSuggestField = "property_type_suggest"
	maxPropertyTypeOptions   = 5
	maxTitleMatches          = 5
	maxBedroomFilters        = 3
	maxPriceFilters          = 2
	maxAreaFilters           = 2
	maxCombinations          = 3
)

// filterKeywords disqualify a query from being location-like.
var filterKeywords = []string{
	"خواب", "متر", "تومان", "تومن", "میلیون", "میلیارد", "حمام", "سرویس",
}

// Candidate filters offered against a free-text query; counts come from the
// backend per candidate.
var (
	bedroomOptions  = []int{2, 3, 4}
	priceCeilings   = []float64{1_000_000_000, 2_000_000_000}
	areaFloors      = []int{100, 200}
	combinationDefs = []struct {
		bedrooms int
		maxPrice float64
	}{
		{2, 2_000_000_000},
		{3, 3_000_000_000},
		{4, 5_000_000_000},
	}
)

// Config carries the engine tunables.
type Config struct {
	MaxSuggestions  int
	FanoutTimeout   time.Duration
	DefaultLocation string
}

// Cache is the optional read-through store for merged free-text suggestion
// lists. Implementations must degrade silently.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.SearchSuggestion, bool)
	Set(ctx context.Context, key string, suggestions []models.SearchSuggestion)
}

// Engine fetches and ranks suggestions. Stateless between calls; the caller
// owns the SearchState.
type Engine struct {
	backend backend.Client
	cache   Cache
	cfg     Config
	logger  logger.Logger
}

func NewEngine(client backend.Client, cache Cache, cfg Config, log logger.Logger) *Engine {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 10
	}
	if cfg.FanoutTimeout <= 0 {
		cfg.FanoutTimeout = 5 * time.Second
	}
	return &Engine{
		backend: client,
		cache:   cache,
		cfg:     cfg,
		logger:  log.WithFields(map[string]interface{}{"component": "suggestion-engine"}),
	}
}

// ForStage fetches the suggestions for the state's current stage. Failures
// yield an empty list, never an error.
func (e *Engine) ForStage(ctx context.Context, state models.SearchState) []models.SearchSuggestion {
	metrics.SuggestionFanouts.WithLabelValues(state.Stage).Inc()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.FanoutTimeout)
	defer cancel()

	var (
		suggestions []models.SearchSuggestion
		err         error
	)

	switch state.Stage {
	case models.StagePropertyType:
		suggestions, err = e.propertyTypeSuggestions(ctx, state.Query)
	case models.StageBedrooms:
		suggestions, err = e.bedroomSuggestions(ctx, state.PropertyType)
	case models.StagePrice:
		suggestions, err = e.priceSuggestions(ctx, state.PropertyType, state.Bedrooms)
	default:
		return []models.SearchSuggestion{}
	}

	if err != nil {
		if !stderrors.IsSilent(err) {
			e.logger.Warn("stage suggestion fetch degraded", map[string]interface{}{
				"stage":     state.Stage,
				"errorCode": string(stderrors.CodeOf(err)),
			})
		}
		return []models.SearchSuggestion{}
	}
	return truncate(suggestions, e.cfg.MaxSuggestions)
}

func (e *Engine) propertyTypeSuggestions(ctx context.Context, text string) ([]models.SearchSuggestion, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minQueryLength {
		return []models.SearchSuggestion{}, nil
	}

	contexts := map[string][]string{}
	if e.cfg.DefaultLocation != "" {
		contexts["location"] = []string{e.cfg.DefaultLocation}
	}

	completions, err := e.backend.SuggestCompletion(ctx, propertyTypeSuggestField, text, contexts, maxPropertyTypeOptions)
	if err != nil {
		return nil, err
	}

	out := make([]models.SearchSuggestion, 0, len(completions))
	for _, c := range completions {
		canonical := parser.Parse(c.Text).PropertyType
		out = append(out, models.SearchSuggestion{
			Type:        models.SuggestionPropertyType,
			DisplayText: c.Text,
			Query:       c.Text,
			Filter: &models.FilterDescriptor{
				Field: "property_type",
				Value: canonical,
			},
		})
	}
	return out, nil
}

func (e *Engine) bedroomSuggestions(ctx context.Context, propertyType string) ([]models.SearchSuggestion, error) {
	body := query.Build(&models.PropertySearchQuery{PropertyType: propertyType})
	body["size"] = 0

	result, err := e.backend.Search(ctx, body, backend.SearchOptions{
		Timeout:    e.cfg.FanoutTimeout,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, err
	}

	out := []models.SearchSuggestion{}
	for _, bucket := range result.Aggregations.Bedrooms {
		if bucket.Key < 0 || bucket.DocCount == 0 {
			continue
		}
		n := int(bucket.Key)
		count := bucket.DocCount
		value := float64(n)
		out = append(out, models.SearchSuggestion{
			Type:        models.SuggestionBedrooms,
			DisplayText: fmt.Sprintf("%d خوابه", n),
			Query:       fmt.Sprintf("%d خوابه", n),
			ResultCount: &count,
			Filter: &models.FilterDescriptor{
				Field: "bedrooms",
				Min:   &value,
				Max:   &value,
			},
		})
	}
	return out, nil
}

func (e *Engine) priceSuggestions(ctx context.Context, propertyType string, bedrooms *int) ([]models.SearchSuggestion, error) {
	q := &models.PropertySearchQuery{PropertyType: propertyType}
	if bedrooms != nil {
		q.Bedrooms = &models.IntRange{Min: bedrooms, Max: bedrooms}
	}
	body := query.Build(q)
	body["size"] = 0

	result, err := e.backend.Search(ctx, body, backend.SearchOptions{
		Timeout:    e.cfg.FanoutTimeout,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, err
	}

	out := []models.SearchSuggestion{}
	for _, bucket := range result.Aggregations.PriceRanges {
		if bucket.DocCount == 0 {
			continue
		}
		count := bucket.DocCount
		display := formatPriceBounds(bucket.From, bucket.To)
		out = append(out, models.SearchSuggestion{
			Type:        models.SuggestionPriceRange,
			DisplayText: display,
			Query:       display,
			ResultCount: &count,
			Filter: &models.FilterDescriptor{
				Field: "price",
				Min:   bucket.From,
				Max:   bucket.To,
			},
		})
	}
	return out, nil
}

// ForText resolves general typeahead for a free-text query: concurrent
// branches share one deadline, each branch catches its own failure and
// contributes an empty sub-list, and the merged result is truncated to the
// ceiling in fixed priority order.
func (e *Engine) ForText(ctx context.Context, text string) []models.SearchSuggestion {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minQueryLength {
		return []models.SearchSuggestion{}
	}

	cacheKey := text
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, cacheKey); ok {
			metrics.SuggestionCacheHits.WithLabelValues("hit").Inc()
			return cached
		}
		metrics.SuggestionCacheHits.WithLabelValues("miss").Inc()
	}

	metrics.SuggestionFanouts.WithLabelValues("free_text").Inc()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.FanoutTimeout)
	defer cancel()

	var (
		titleMatches   []models.SearchSuggestion
		bedroomFilters []models.SearchSuggestion
		priceFilters   []models.SearchSuggestion
		areaFilters    []models.SearchSuggestion
		combinations   []models.SearchSuggestion
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(e.branch(gctx, "title", &titleMatches, func(ctx context.Context) ([]models.SearchSuggestion, error) {
		return e.titleMatches(ctx, text)
	}))
	g.Go(e.branch(gctx, "bedrooms", &bedroomFilters, func(ctx context.Context) ([]models.SearchSuggestion, error) {
		return e.bedroomFilters(ctx, text)
	}))
	g.Go(e.branch(gctx, "price", &priceFilters, func(ctx context.Context) ([]models.SearchSuggestion, error) {
		return e.priceFilters(ctx, text)
	}))
	g.Go(e.branch(gctx, "area", &areaFilters, func(ctx context.Context) ([]models.SearchSuggestion, error) {
		return e.areaFilters(ctx, text)
	}))

	if isLocationLike(text) {
		g.Go(e.branch(gctx, "combination", &combinations, func(ctx context.Context) ([]models.SearchSuggestion, error) {
			return e.combinationSuggestions(ctx, text)
		}))
	}

	// Branches never return errors; the join only waits.
	_ = g.Wait()

	merged := make([]models.SearchSuggestion, 0,
		len(titleMatches)+len(bedroomFilters)+len(priceFilters)+len(areaFilters)+len(combinations))
	merged = append(merged, titleMatches...)
	merged = append(merged, bedroomFilters...)
	merged = append(merged, priceFilters...)
	merged = append(merged, areaFilters...)
	merged = append(merged, combinations...)
	merged = truncate(merged, e.cfg.MaxSuggestions)

	if e.cache != nil {
		e.cache.Set(ctx, cacheKey, merged)
	}
	return merged
}

// branch wraps a fetch so its failure becomes an empty contribution instead
// of surfacing at the join.
func (e *Engine) branch(ctx context.Context, name string, slot *[]models.SearchSuggestion, fetch func(context.Context) ([]models.SearchSuggestion, error)) func() error {
	return func() error {
		result, err := fetch(ctx)
		if err != nil {
			metrics.SuggestionBranchFailures.WithLabelValues(name).Inc()
			if !stderrors.IsSilent(err) {
				e.logger.Warn("suggestion branch degraded", map[string]interface{}{
					"branch":    name,
					"errorCode": string(stderrors.CodeOf(err)),
				})
			}
			return nil
		}
		*slot = result
		return nil
	}
}

func (e *Engine) titleMatches(ctx context.Context, text string) ([]models.SearchSuggestion, error) {
	body := query.Build(&models.PropertySearchQuery{Text: text})
	body["size"] = maxTitleMatches

	result, err := e.backend.Search(ctx, body, backend.SearchOptions{
		Timeout:    e.cfg.FanoutTimeout,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, err
	}

	out := []models.SearchSuggestion{}
	for _, hit := range result.Hits {
		title, _ := hit.Source["title"].(string)
		if title == "" {
			continue
		}
		out = append(out, models.SearchSuggestion{
			Type:        models.SuggestionProperty,
			DisplayText: title,
			Query:       title,
		})
	}
	return out, nil
}

func (e *Engine) bedroomFilters(ctx context.Context, text string) ([]models.SearchSuggestion, error) {
	out := []models.SearchSuggestion{}
	for _, n := range bedroomOptions {
		if len(out) >= maxBedroomFilters {
			break
		}
		value := float64(n)
		body := query.Build(&models.PropertySearchQuery{
			Text:     text,
			Bedrooms: &models.IntRange{Min: &n, Max: &n},
		})
		count, err := e.backend.Count(ctx, body)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		out = append(out, models.SearchSuggestion{
			Type:        models.SuggestionFilter,
			DisplayText: fmt.Sprintf("%s %d خوابه", text, n),
			Query:       fmt.Sprintf("%s %d خوابه", text, n),
			ResultCount: &count,
			Filter: &models.FilterDescriptor{
				Field: "bedrooms",
				Min:   &value,
				Max:   &value,
			},
		})
	}
	return out, nil
}

func (e *Engine) priceFilters(ctx context.Context, text string) ([]models.SearchSuggestion, error) {
	out := []models.SearchSuggestion{}
	for _, ceiling := range priceCeilings {
		if len(out) >= maxPriceFilters {
			break
		}
		body := query.Build(&models.PropertySearchQuery{
			Text:  text,
			Price: &models.PriceRange{Max: &ceiling},
		})
		count, err := e.backend.Count(ctx, body)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		display := fmt.Sprintf("%s تا %s", text, formatRials(ceiling))
		out = append(out, models.SearchSuggestion{
			Type:        models.SuggestionFilter,
			DisplayText: display,
			Query:       display,
			ResultCount: &count,
			Filter: &models.FilterDescriptor{
				Field: "price",
				Max:   &ceiling,
			},
		})
	}
	return out, nil
}

func (e *Engine) areaFilters(ctx context.Context, text string) ([]models.SearchSuggestion, error) {
	out := []models.SearchSuggestion{}
	for _, floor := range areaFloors {
		if len(out) >= maxAreaFilters {
			break
		}
		floor := floor
		value := float64(floor)
		body := query.Build(&models.PropertySearchQuery{
			Text: text,
			Area: &models.IntRange{Min: &floor},
		})
		count, err := e.backend.Count(ctx, body)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		display := fmt.Sprintf("%s حداقل %d متر", text, floor)
		out = append(out, models.SearchSuggestion{
			Type:        models.SuggestionFilter,
			DisplayText: display,
			Query:       display,
			ResultCount: &count,
			Filter: &models.FilterDescriptor{
				Field: "area",
				Min:   &value,
			},
		})
	}
	return out, nil
}

func (e *Engine) combinationSuggestions(ctx context.Context, text string) ([]models.SearchSuggestion, error) {
	out := []models.SearchSuggestion{}
	for _, def := range combinationDefs {
		if len(out) >= maxCombinations {
			break
		}
		minBeds := def.bedrooms
		maxPrice := def.maxPrice
		body := query.Build(&models.PropertySearchQuery{
			Text:     text,
			Bedrooms: &models.IntRange{Min: &minBeds},
			Price:    &models.PriceRange{Max: &maxPrice},
		})
		count, err := e.backend.Count(ctx, body)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		display := fmt.Sprintf("%s، %d خوابه تا %s", text, def.bedrooms, formatRials(def.maxPrice))
		out = append(out, models.SearchSuggestion{
			Type:        models.SuggestionCombination,
			DisplayText: display,
			Query:       display,
			ResultCount: &count,
		})
	}
	return out, nil
}

// isLocationLike reports whether a free-text query should also produce
// combination suggestions: long enough to be a place name and free of every
// filter keyword.
func isLocationLike(text string) bool {
	if utf8.RuneCountInString(text) < minLocationLength {
		return false
	}
	for _, kw := range filterKeywords {
		if strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

func truncate(list []models.SearchSuggestion, max int) []models.SearchSuggestion {
	if len(list) > max {
		return list[:max]
	}
	return list
}
