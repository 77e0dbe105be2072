package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraudshield_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"method", "path"},
	)

	// Classification metrics
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_classifications_total",
			Help: "Total persisted classifications",
		},
		[]string{"channel", "label"},
	)

	ScorerFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraudshield_scorer_fallbacks_total",
			Help: "Classifications answered with the fallback verdict",
		},
	)

	ScorerLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fraudshield_scorer_latency_seconds",
			Help:    "Delegate scorer call latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_cache_requests_total",
			Help: "Classification cache lookups",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	// Telephony
	WebhookAbsorbed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_webhook_absorbed_errors_total",
			Help: "Telephony webhook failures acknowledged as OK",
		},
		[]string{"webhook"},
	)

	// Ingestion
	IngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_ingested_envelopes_total",
			Help: "Queue envelopes processed by the ingestion worker",
		},
		[]string{"outcome"},
	)
)
