package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "amlak-search/internal/common/errors"
	"amlak-search/internal/common/logger"
	"amlak-search/internal/models"
	"amlak-search/internal/search/backend"
)

// fakeClient is a concurrency-safe backend.Client backed by closures.
type fakeClient struct {
	mu           sync.Mutex
	searchFn     func(body map[string]interface{}) (*backend.SearchResult, error)
	countFn      func(body map[string]interface{}) (int64, error)
	suggestFn    func(prefix string) ([]backend.Completion, error)
	searchCalls  int
	countCalls   int
	suggestCalls int
}

func (f *fakeClient) Search(_ context.Context, body map[string]interface{}, _ backend.SearchOptions) (*backend.SearchResult, error) {
	f.mu.Lock()
	f.searchCalls++
	fn := f.searchFn
	f.mu.Unlock()
	if fn == nil {
		return &backend.SearchResult{}, nil
	}
	return fn(body)
}

func (f *fakeClient) Count(_ context.Context, body map[string]interface{}) (int64, error) {
	f.mu.Lock()
	f.countCalls++
	fn := f.countFn
	f.mu.Unlock()
	if fn == nil {
		return 0, nil
	}
	return fn(body)
}

func (f *fakeClient) SuggestCompletion(_ context.Context, _, prefix string, _ map[string][]string, _ int) ([]backend.Completion, error) {
	f.mu.Lock()
	f.suggestCalls++
	fn := f.suggestFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(prefix)
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]models.SearchSuggestion
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]models.SearchSuggestion{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]models.SearchSuggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, suggestions []models.SearchSuggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = suggestions
	c.sets++
}

func newTestEngine(client backend.Client, cache Cache) *Engine {
	return NewEngine(client, cache, Config{
		MaxSuggestions:  10,
		FanoutTimeout:   2 * time.Second,
		DefaultLocation: "تهران",
	}, logger.NewNoOpLogger())
}

func TestForStagePropertyType(t *testing.T) {
	client := &fakeClient{
		suggestFn: func(prefix string) ([]backend.Completion, error) {
			assert.Equal(t, "آپار", prefix)
			return []backend.Completion{
				{Text: "آپارتمان", Score: 2},
				{Text: "آپارتمان نوساز", Score: 1},
			}, nil
		},
	}
	engine := newTestEngine(client, nil)

	state := models.NewSearchState()
	state.Query = "آپار"
	got := engine.ForStage(context.Background(), state)

	require.Len(t, got, 2)
	assert.Equal(t, models.SuggestionPropertyType, got[0].Type)
	assert.Equal(t, "آپارتمان", got[0].DisplayText)
	require.NotNil(t, got[0].Filter)
	assert.Equal(t, "apartment", got[0].Filter.Value)
}

func TestForStagePropertyTypeShortQuerySkipsBackend(t *testing.T) {
	client := &fakeClient{}
	engine := newTestEngine(client, nil)

	state := models.NewSearchState()
	state.Query = "آ"
	got := engine.ForStage(context.Background(), state)

	assert.Empty(t, got)
	assert.Zero(t, client.suggestCalls)
}

func TestForStageBedroomsSkipsMissingAndEmptyBuckets(t *testing.T) {
	client := &fakeClient{
		searchFn: func(body map[string]interface{}) (*backend.SearchResult, error) {
			assert.Equal(t, 0, body["size"])
			return &backend.SearchResult{
				Aggregations: backend.Aggregations{
					Bedrooms: []backend.TermBucket{
						{Key: -1, DocCount: 4},
						{Key: 1, DocCount: 0},
						{Key: 2, DocCount: 12},
						{Key: 3, DocCount: 7},
					},
				},
			}, nil
		},
	}
	engine := newTestEngine(client, nil)

	state := models.NewSearchState()
	state.Stage = models.StageBedrooms
	state.PropertyType = "apartment"
	got := engine.ForStage(context.Background(), state)

	require.Len(t, got, 2)
	assert.Equal(t, "2 خوابه", got[0].DisplayText)
	require.NotNil(t, got[0].ResultCount)
	assert.Equal(t, int64(12), *got[0].ResultCount)
	assert.Equal(t, "3 خوابه", got[1].DisplayText)
}

func TestForStagePriceBuildsRangeFilters(t *testing.T) {
	upper := float64(1_000_000_000)
	client := &fakeClient{
		searchFn: func(map[string]interface{}) (*backend.SearchResult, error) {
			return &backend.SearchResult{
				Aggregations: backend.Aggregations{
					PriceRanges: []backend.RangeBucket{
						{Key: "*-500000000.0", To: floatPtr(500_000_000), DocCount: 0},
						{Key: "500000000.0-1000000000.0", From: floatPtr(500_000_000), To: &upper, DocCount: 9},
					},
				},
			}, nil
		},
	}
	engine := newTestEngine(client, nil)

	bedrooms := 2
	state := models.NewSearchState()
	state.Stage = models.StagePrice
	state.PropertyType = "apartment"
	state.Bedrooms = &bedrooms
	got := engine.ForStage(context.Background(), state)

	require.Len(t, got, 1)
	assert.Equal(t, models.SuggestionPriceRange, got[0].Type)
	assert.Equal(t, "بین 500 میلیون تا 1 میلیارد", got[0].DisplayText)
	require.NotNil(t, got[0].Filter)
	assert.Equal(t, "price", got[0].Filter.Field)
	assert.Equal(t, upper, *got[0].Filter.Max)
}

func TestForStageBackendFailureYieldsEmpty(t *testing.T) {
	client := &fakeClient{
		searchFn: func(map[string]interface{}) (*backend.SearchResult, error) {
			return nil, stderrors.NewBackendUnreachableError(errors.New("connect: refused"))
		},
	}
	engine := newTestEngine(client, nil)

	state := models.NewSearchState()
	state.Stage = models.StageBedrooms
	state.PropertyType = "villa"
	got := engine.ForStage(context.Background(), state)

	assert.Empty(t, got)
}

func TestForTextMergesInPriorityOrderAndCaps(t *testing.T) {
	client := &fakeClient{
		searchFn: func(map[string]interface{}) (*backend.SearchResult, error) {
			return &backend.SearchResult{
				Hits: []backend.Hit{
					{ID: "1", Source: map[string]interface{}{"title": "آپارتمان نیاوران"}},
					{ID: "2", Source: map[string]interface{}{"title": "ویلا نیاوران"}},
					{ID: "3", Source: map[string]interface{}{"title": "خانه نیاوران"}},
					{ID: "4", Source: map[string]interface{}{"title": "آپارتمان لوکس"}},
					{ID: "5", Source: map[string]interface{}{"title": "پنت‌هاوس نیاوران"}},
				},
			}, nil
		},
		countFn: func(map[string]interface{}) (int64, error) {
			return 5, nil
		},
	}
	engine := newTestEngine(client, nil)

	got := engine.ForText(context.Background(), "نیاوران")

	require.Len(t, got, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, models.SuggestionProperty, got[i].Type, "slot %d", i)
	}
	assert.Equal(t, models.SuggestionFilter, got[5].Type)
	assert.Contains(t, got[5].DisplayText, "خوابه")
	assert.Contains(t, got[8].DisplayText, "میلیارد")
}

func TestForTextBranchFailureKeepsOtherBranches(t *testing.T) {
	client := &fakeClient{
		searchFn: func(map[string]interface{}) (*backend.SearchResult, error) {
			return &backend.SearchResult{
				Hits: []backend.Hit{
					{ID: "1", Source: map[string]interface{}{"title": "ویلا دماوند"}},
				},
			}, nil
		},
		countFn: func(map[string]interface{}) (int64, error) {
			return 0, stderrors.NewSearchTimeoutError("count deadline")
		},
	}
	engine := newTestEngine(client, nil)

	got := engine.ForText(context.Background(), "دماوند")

	require.Len(t, got, 1)
	assert.Equal(t, "ویلا دماوند", got[0].DisplayText)
}

func TestForTextSkipsCombinationsForFilterKeywords(t *testing.T) {
	client := &fakeClient{
		countFn: func(map[string]interface{}) (int64, error) {
			return 3, nil
		},
	}
	engine := newTestEngine(client, nil)

	got := engine.ForText(context.Background(), "2 خوابه شمال")

	for _, s := range got {
		assert.NotEqual(t, models.SuggestionCombination, s.Type)
	}
}

func TestForTextShortQueryReturnsEmpty(t *testing.T) {
	client := &fakeClient{}
	engine := newTestEngine(client, nil)

	got := engine.ForText(context.Background(), " م ")

	assert.Empty(t, got)
	assert.Zero(t, client.searchCalls)
	assert.Zero(t, client.countCalls)
}

func TestForTextCacheReadThrough(t *testing.T) {
	client := &fakeClient{
		searchFn: func(map[string]interface{}) (*backend.SearchResult, error) {
			return &backend.SearchResult{
				Hits: []backend.Hit{
					{ID: "1", Source: map[string]interface{}{"title": "آپارتمان ونک"}},
				},
			}, nil
		},
	}
	cache := newMapCache()
	engine := newTestEngine(client, cache)

	first := engine.ForText(context.Background(), "ونک")
	require.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets)

	callsAfterFirst := client.searchCalls
	second := engine.ForText(context.Background(), "ونک")

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, client.searchCalls, "cache hit must not touch the backend")
}
