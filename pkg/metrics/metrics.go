package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Adapter metrics
	AdapterConstructions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_adapter_constructions_total",
			Help: "Total number of service adapters constructed, by provider and service",
		},
		[]string{"provider", "service"},
	)

	AdapterConstructionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_adapter_construction_failures_total",
			Help: "Total number of adapter constructions that failed, by provider and service",
		},
		[]string{"provider", "service"},
	)

	AdaptersActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "platform_adapters_active",
			Help: "Number of live adapter instances held by factories, by provider",
		},
		[]string{"provider"},
	)

	// Operation metrics
	OperationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "platform_operation_duration_seconds",
			Help:    "Duration of provider operations, including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	RetryAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_retry_attempts_total",
			Help: "Total number of operation attempts made under a retry policy",
		},
	)

	RetriesExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_retries_exhausted_total",
			Help: "Total number of operations that failed after exhausting their retry budget",
		},
	)

	// Cache metrics
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_cache_hits_total",
			Help: "Total number of data-plane cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_cache_misses_total",
			Help: "Total number of data-plane cache misses",
		},
	)

	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "platform_cache_entries",
			Help: "Number of entries resident in the data-plane cache",
		},
	)

	// Validation metrics
	ValidationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_validation_failures_total",
			Help: "Total number of records rejected by schema validation",
		},
	)
)

func init() {
	prometheus.MustRegister(AdapterConstructions)
	prometheus.MustRegister(AdapterConstructionFailures)
	prometheus.MustRegister(AdaptersActive)
	prometheus.MustRegister(OperationDuration)
	prometheus.MustRegister(RetryAttempts)
	prometheus.MustRegister(RetriesExhausted)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheEntries)
	prometheus.MustRegister(ValidationFailures)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
