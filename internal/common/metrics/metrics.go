// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of executed property searches",
		},
		[]string{"sort_by"},
	)

	SearchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_errors_total",
			Help: "Total number of classified search failures",
		},
		[]string{"error_code"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "search_duration_seconds",
			Help: "Duration of search execution in seconds",
		},
		[]string{"sort_by"},
	)

	SuggestionFanouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_fanouts_total",
			Help: "Total number of suggestion fan-outs by stage",
		},
		[]string{"stage"},
	)

	SuggestionBranchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_branch_failures_total",
			Help: "Suggestion branches that degraded to an empty contribution",
		},
		[]string{"branch"},
	)

	SuggestionCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_cache_events_total",
			Help: "Suggestion cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
