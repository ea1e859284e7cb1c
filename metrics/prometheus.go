package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	marketplaceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_requests_total",
			Help: "Total number of marketplace API attempts.",
		},
		[]string{"account", "resource", "outcome"},
	)
	marketplaceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_request_duration_seconds",
			Help:    "Histogram of marketplace API call durations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"account", "resource", "outcome"},
	)
	limiterWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limiter_wait_seconds",
			Help:    "Time spent waiting for a rate limiter grant.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"account", "class"},
	)
	syncJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_jobs_total",
			Help: "Terminal sync job outcomes.",
		},
		[]string{"account", "resource", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(marketplaceRequestsTotal)
	prometheus.MustRegister(marketplaceRequestDuration)
	prometheus.MustRegister(limiterWaitDuration)
	prometheus.MustRegister(syncJobsTotal)
}

// RecordRequest records metrics for an inbound HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordMarketplaceCall records one marketplace API attempt, success or not.
func RecordMarketplaceCall(account, resource, outcome string, duration time.Duration) {
	marketplaceRequestsTotal.WithLabelValues(account, resource, outcome).Inc()
	marketplaceRequestDuration.WithLabelValues(account, resource, outcome).Observe(duration.Seconds())
}

// RecordLimiterWait records how long a caller waited for a grant.
func RecordLimiterWait(account, class string, duration time.Duration) {
	limiterWaitDuration.WithLabelValues(account, class).Observe(duration.Seconds())
}

// RecordSyncJob records a terminal sync job status.
func RecordSyncJob(account, resource, status string) {
	syncJobsTotal.WithLabelValues(account, resource, status).Inc()
}

func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler returns the HTTP handler exporting prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
