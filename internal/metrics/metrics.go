package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "karaoke",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "provider_requests_total",
		Help:      "Total provider calls by provider, kind and outcome (ok, empty, panic).",
	}, []string{"provider", "kind", "status"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "karaoke",
		Name:      "provider_request_duration_seconds",
		Help:      "Provider call duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"provider", "kind"})

	ProviderResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "karaoke",
		Name:      "provider_results",
		Help:      "Number of records a provider contributed to one aggregate.",
		Buckets:   []float64{0, 1, 5, 10, 20, 50},
	}, []string{"provider", "kind"})

	FetchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "fetch_requests_total",
		Help:      "Outbound fetches by host and HTTP status (error for transport failures).",
	}, []string{"host", "status"})

	FetchRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "karaoke",
		Name:      "fetch_request_duration_seconds",
		Help:      "Outbound fetch duration in seconds.",
		Buckets:   []float64{0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"host"})

	PipelineStageTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "pipeline_stage_total",
		Help:      "Resolution pipeline stage executions by stage and outcome.",
	}, []string{"stage", "outcome"})

	CrawlPagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "crawl_pages_total",
		Help:      "Listing pages fetched by outcome.",
	}, []string{"outcome"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "cache_hits_total",
		Help:      "Total number of aggregate cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "cache_misses_total",
		Help:      "Total number of aggregate cache misses.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ProviderResults,
		FetchRequestsTotal,
		FetchRequestDuration,
		PipelineStageTotal,
		CrawlPagesTotal,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
