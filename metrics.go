package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedmirror/internal/upstream"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedmirror_http_requests_total",
			Help: "HTTP requests by status class",
		},
		[]string{"class"},
	)
	httpRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedmirror_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Frame metrics
var (
	frameRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedmirror_frame_renders_total",
			Help: "Frame requests by listing kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: ok, empty, not_modified, denied, out_of_range, rate_limited, error
	)
	originDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedmirror_origin_denials_total",
			Help: "Frame requests rejected by the origin guard",
		},
		[]string{"reason"},
	)
)

// Upstream and cache metrics
var (
	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedmirror_upstream_request_duration_seconds",
			Help:    "Upstream API latency by endpoint and result",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"endpoint", "result"},
	)
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedmirror_cache_lookups_total",
			Help: "Upstream result cache lookups",
		},
		[]string{"result"},
	)
)

// recordUpstreamFetch is the upstream.Client fetch hook.
func recordUpstreamFetch(endpoint string, elapsed time.Duration, err error) {
	result := "ok"
	switch {
	case errors.Is(err, upstream.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	upstreamDuration.WithLabelValues(endpoint, result).Observe(elapsed.Seconds())
}

// recordCacheLookup is the upstream.Cached hit hook.
func recordCacheLookup(hit bool) {
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
	} else {
		cacheLookupsTotal.WithLabelValues("miss").Inc()
	}
}

func recordRequest(status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
	httpRequestDuration.Observe(elapsed.Seconds())
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
