package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PageRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_page_renders_total",
			Help: "Total number of pages rendered",
		},
		[]string{"route", "cache"},
	)

	UnmatchedNavigations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_unmatched_navigations_total",
			Help: "Total number of locations that matched no route",
		},
	)

	RenderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_render_errors_total",
			Help: "Total number of component render failures",
		},
		[]string{"component"},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_render_duration_seconds",
			Help:    "Time taken to render a page",
			Buckets: prometheus.DefBuckets,
		},
	)

	AppMounts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_app_mounts_total",
			Help: "Total number of successful app mounts",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	HTTPPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_panics_total",
			Help: "Total number of recovered handler panics",
		},
		[]string{"method"},
	)
)
