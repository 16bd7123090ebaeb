// Package backend wraps the Elasticsearch transport behind the small search
// client interface the rest of the core depends on. All failures leave this
// package already classified; retries happen here, transparently to callers,
// and only for read-only requests so they can never duplicate side effects.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	stderrors "amlak-search/internal/common/errors"
	"amlak-search/internal/common/logger"
)

const (
	DefaultSearchTimeout = 30 * time.Second
	DefaultMaxRetries    = 3

	retryBaseDelay = 250 * time.Millisecond
)

// SearchOptions bound a single search call.
type SearchOptions struct {
	Timeout    time.Duration
	MaxRetries int
}

// Hit is one ranked document of a search response.
type Hit struct {
	ID     string
	Score  float64
	Source map[string]interface{}
}

// SearchResult is the decoded body of a successful search.
type SearchResult struct {
	Hits         []Hit
	Total        int64
	MaxScore     float64
	Took         int64
	Aggregations Aggregations
}

// Completion is a single completion-suggester option.
type Completion struct {
	Text  string
	Score float64
}

// Client is the search backend contract consumed by the suggestion engine and
// the orchestrator. Implementations are safe for concurrent use.
type Client interface {
	Search(ctx context.Context, body map[string]interface{}, opts SearchOptions) (*SearchResult, error)
	Count(ctx context.Context, body map[string]interface{}) (int64, error)
	SuggestCompletion(ctx context.Context, field, prefix string, contexts map[string][]string, size int) ([]Completion, error)
}

// ESClient implements Client on top of go-elasticsearch. The underlying
// client is a long-lived connection pool shared by all components.
type ESClient struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewESClient(es *elasticsearch.Client, index string, log logger.Logger) *ESClient {
	return &ESClient{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search-backend"}),
	}
}

type esSearchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string                 `json:"_id"`
			Score  *float64               `json:"_score"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// Search executes the query with a transport-level bounded retry. Search and
// its aggregations are read-only, so retried attempts are safe.
func (c *ESClient) Search(ctx context.Context, body map[string]interface{}, opts SearchOptions) (*SearchResult, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSearchTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, stderrors.NewInvalidQueryError(err.Error())
	}

	var lastErr *stderrors.StandardError
	delay := retryBaseDelay

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		result, stdErr := c.doSearch(ctx, payload)
		if stdErr == nil {
			return result, nil
		}
		lastErr = stdErr

		if !stdErr.Retryable || attempt == opts.MaxRetries-1 {
			break
		}

		c.logger.Warn("search attempt failed, retrying", map[string]interface{}{
			"attempt":   attempt + 1,
			"errorCode": string(stdErr.Code),
			"nextDelay": delay.String(),
		})

		select {
		case <-ctx.Done():
			return nil, stderrors.Classify(ctx.Err(), 0)
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, lastErr
}

func (c *ESClient) doSearch(ctx context.Context, payload []byte) (*SearchResult, *stderrors.StandardError) {
	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return nil, stderrors.Classify(err, 0)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, stderrors.Classify(nil, res.StatusCode)
	}

	var r esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, stderrors.NewBackendFaultError("decode search response: " + err.Error())
	}

	aggs, err := decodeAggregations(r.Aggregations)
	if err != nil {
		return nil, stderrors.NewBackendFaultError(err.Error())
	}

	hits := make([]Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		score := 0.0
		if h.Score != nil {
			score = *h.Score
		}
		hits = append(hits, Hit{ID: h.ID, Score: score, Source: h.Source})
	}

	maxScore := 0.0
	if r.Hits.MaxScore != nil {
		maxScore = *r.Hits.MaxScore
	}

	return &SearchResult{
		Hits:         hits,
		Total:        r.Hits.Total.Value,
		MaxScore:     maxScore,
		Took:         r.Took,
		Aggregations: aggs,
	}, nil
}

// Count runs only the query part of the body through the count API.
func (c *ESClient) Count(ctx context.Context, body map[string]interface{}) (int64, error) {
	countBody := map[string]interface{}{}
	if q, ok := body["query"]; ok {
		countBody["query"] = q
	}

	payload, err := json.Marshal(countBody)
	if err != nil {
		return 0, stderrors.NewInvalidQueryError(err.Error())
	}

	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.index),
		c.es.Count.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return 0, stderrors.Classify(err, 0)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, stderrors.Classify(nil, res.StatusCode)
	}

	var r struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, stderrors.NewBackendFaultError("decode count response: " + err.Error())
	}
	return r.Count, nil
}

const suggestName = "property_suggest"

type esSuggestResponse struct {
	Suggest map[string][]struct {
		Options []struct {
			Text  string  `json:"text"`
			Score float64 `json:"_score"`
		} `json:"options"`
	} `json:"suggest"`
}

// SuggestCompletion runs a prefix completion against the given field.
func (c *ESClient) SuggestCompletion(ctx context.Context, field, prefix string, contexts map[string][]string, size int) ([]Completion, error) {
	completion := map[string]interface{}{
		"field": field,
		"size":  size,
	}
	if len(contexts) > 0 {
		completion["contexts"] = contexts
	}

	body := map[string]interface{}{
		"suggest": map[string]interface{}{
			suggestName: map[string]interface{}{
				"prefix":     prefix,
				"completion": completion,
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, stderrors.NewInvalidQueryError(err.Error())
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return nil, stderrors.Classify(err, 0)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, stderrors.Classify(nil, res.StatusCode)
	}

	var r esSuggestResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, stderrors.NewBackendFaultError("decode suggest response: " + err.Error())
	}

	var out []Completion
	for _, entry := range r.Suggest[suggestName] {
		for _, opt := range entry.Options {
			out = append(out, Completion{Text: opt.Text, Score: opt.Score})
		}
	}
	return out, nil
}
