package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "query_pages_total",
		Help:      "Connection pages served, by window mode.",
	}, []string{"mode"})

	pageSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "roster",
		Name:      "query_page_size",
		Help:      "Number of edges returned per page.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
	})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "roster",
		Name:      "store_call_duration_seconds",
		Help:      "Latency of record store calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	denials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "authz_denials_total",
		Help:      "Requests denied by the authorization policy.",
	}, []string{"reason"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "ratelimit_rejections_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	auditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "audit_events_total",
		Help:      "Change events written to the audit sink.",
	}, []string{"type"})
)

// ObservePage records one served page.
func ObservePage(mode string, edges int) {
	pages.WithLabelValues(mode).Inc()
	pageSize.Observe(float64(edges))
}

// StoreTimer starts timing a store call; call the returned func when done.
func StoreTimer(op string) func() {
	start := time.Now()
	return func() {
		storeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// Denied counts a policy denial.
func Denied(reason string) {
	denials.WithLabelValues(reason).Inc()
}

// RateLimited counts a rejected request.
func RateLimited() {
	rateLimited.Inc()
}

// Audited counts a processed change event.
func Audited(eventType string) {
	auditEvents.WithLabelValues(eventType).Inc()
}
