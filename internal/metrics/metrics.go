package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votemap_requests_total",
		Help: "Total API requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "votemap_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	LayerCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votemap_layer_cache_hits_total",
		Help: "Rendered layer cache hits by tier",
	}, []string{"tier"})
	LayerCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votemap_layer_cache_misses_total",
		Help: "Rendered layer cache misses",
	})
	NeutralFeaturesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votemap_neutral_features_total",
		Help: "Features classified to the neutral colour",
	})
	ReconcileMatched = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "votemap_reconcile_matched",
		Help: "Base records matched with a change entry in the current dataset",
	})
	ReconcileUnmatched = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "votemap_reconcile_unmatched",
		Help: "Base records without a change entry in the current dataset",
	})
	ReconcileDuplicates = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "votemap_reconcile_duplicates",
		Help: "Change entries ignored because their join key was already matched",
	})
	DatasetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votemap_dataset_loads_total",
		Help: "Dataset load attempts by status",
	}, []string{"status"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votemap_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(LayerCacheHitsTotal)
	prometheus.MustRegister(LayerCacheMissesTotal)
	prometheus.MustRegister(NeutralFeaturesTotal)
	prometheus.MustRegister(ReconcileMatched)
	prometheus.MustRegister(ReconcileUnmatched)
	prometheus.MustRegister(ReconcileDuplicates)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：在主入口挂载到 API 前缀下的 /metrics。
func Handler() http.Handler { return promhttp.Handler() }
