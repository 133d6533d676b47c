// Package metrics 集中定義 Prometheus 指標
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// 搜尋
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_search_requests_total",
			Help: "Total number of recipe searches by path",
		},
		[]string{"path"}, // "fast", "filtered", "match"
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipe_search_duration_seconds",
			Help:    "Duration of recipe searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SearchDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_search_degraded_total",
			Help: "Total number of reads answered with empty results or empty line items after a store failure",
		},
		[]string{"operation"},
	)

	// 食材索引
	IngredientIndexBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingredient_index_builds_total",
			Help: "Total number of ingredient index builds",
		},
		[]string{"result"},
	)

	IngredientIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingredient_index_entries",
			Help: "Number of ingredients in the current index snapshot",
		},
	)

	// 改名
	RecipeRenames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_renames_total",
			Help: "Total number of recipe rename attempts by outcome",
		},
		[]string{"result"}, // "ok", "validation", "not_found", "conflict", "internal"
	)

	RedirectsServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_redirects_served_total",
			Help: "Total number of permanent redirects served for renamed recipes",
		},
	)

	// 快取
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_lookups_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"namespace", "result"},
	)
)

// RecordAPIRequest 記錄 API 請求
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest 增減進行中的請求數
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordIndexBuild 記錄索引建置結果
func RecordIndexBuild(size int, err error) {
	if err != nil {
		IngredientIndexBuilds.WithLabelValues("error").Inc()
		return
	}
	IngredientIndexBuilds.WithLabelValues("ok").Inc()
	IngredientIndexSize.Set(float64(size))
}
