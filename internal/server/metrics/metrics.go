// Package metrics defines the Prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_uploads_total",
			Help: "Total number of object uploads",
		},
		[]string{"status"},
	)

	UploadBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "object_upload_batch_size",
			Help:    "Number of files per upload batch",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	GeocodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Total number of geocoding attempts",
		},
		[]string{"outcome"}, // hit, miss, error, cached
	)

	ArticleWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_writes_total",
			Help: "Total number of article create/update/delete operations",
		},
		[]string{"op", "status"},
	)

	BookmarkWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmark_writes_total",
			Help: "Total number of bookmark add/remove operations",
		},
		[]string{"op", "status"},
	)

	CompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_compensations_total",
			Help: "Compensating actions executed after a partial write",
		},
		[]string{"status"},
	)
)
