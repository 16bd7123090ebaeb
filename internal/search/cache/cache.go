// Package cache provides the short-lived Redis store for merged suggestion
// lists. Typeahead traffic is bursty and repetitive; a few seconds of TTL
// absorbs most of it without serving stale counts for long.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"amlak-search/internal/common/logger"
	"amlak-search/internal/models"
)

const keyPrefix = "suggestions:"

// SuggestionCache stores suggestion lists in Redis. Every failure is
// swallowed: a broken cache must never degrade the suggestion path beyond a
// miss.
type SuggestionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewSuggestionCache(client *redis.Client, ttl time.Duration, log logger.Logger) *SuggestionCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SuggestionCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "suggestion-cache"}),
	}
}

func (c *SuggestionCache) Get(ctx context.Context, key string) ([]models.SearchSuggestion, bool) {
	raw, err := c.client.Get(ctx, cacheKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("suggestion cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var suggestions []models.SearchSuggestion
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		c.logger.Debug("suggestion cache entry corrupt", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return suggestions, true
}

func (c *SuggestionCache) Set(ctx context.Context, key string, suggestions []models.SearchSuggestion) {
	payload, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(key), payload, c.ttl).Err(); err != nil {
		c.logger.Debug("suggestion cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// cacheKey hashes the query text so arbitrary user input never shapes the
// key space.
func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return keyPrefix + hex.EncodeToString(sum[:16])
}
