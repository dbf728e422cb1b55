package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "route"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	pageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_page_fetches_total",
			Help: "Catalog page fetches by view and result.",
		},
		[]string{"view", "result"},
	)
	stalePages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_catalog_stale_pages_total",
			Help: "Page responses discarded because the filter epoch moved on.",
		},
	)

	cartPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_persist_failures_total",
			Help: "Cart saves that failed after an in-memory mutation.",
		},
	)

	checkoutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_outcomes_total",
			Help: "Checkout attempts by overall outcome.",
		},
		[]string{"overall"},
	)
	checkoutLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_lines_total",
			Help: "Checkout line commits by outcome.",
		},
		[]string{"outcome"},
	)
	checkoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Wall time from checkout start to aggregated outcome.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// PageFetched records one catalog page fetch
func PageFetched(view string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pageFetches.WithLabelValues(view, result).Inc()
}

// StalePageDiscarded records a page response dropped on epoch mismatch
func StalePageDiscarded() {
	stalePages.Inc()
}

// CartPersistFailed records a best-effort cart save that failed
func CartPersistFailed() {
	cartPersistFailures.Inc()
}

// CheckoutLine records the outcome of a single line commit
func CheckoutLine(outcome string) {
	checkoutLines.WithLabelValues(outcome).Inc()
}

// CheckoutFinished records the aggregated outcome of a checkout
func CheckoutFinished(overall string, elapsed time.Duration) {
	checkoutOutcomes.WithLabelValues(overall).Inc()
	checkoutDuration.Observe(elapsed.Seconds())
}

// Middleware records request counts and latency labelled by chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(strconv.Itoa(status), r.Method, route).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the Prometheus /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
