package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthscout", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hearthscout", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthscout", Name: "fetch_requests_total", Help: "Outbound page fetches by outcome."},
		[]string{"source", "outcome"}, // outcome: ok|blocked|timeout|network|status
	)
	FetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hearthscout", Name: "fetch_duration_seconds",
			Help:    "Outbound fetch duration seconds, retries included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	Cards = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthscout", Name: "cards_total", Help: "Listing cards by extraction outcome."},
		[]string{"source", "outcome"}, // outcome: parsed|skipped
	)
	FallbackBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthscout", Name: "fallback_batches_total", Help: "Synthetic fallback batches generated."},
		[]string{"source"},
	)
	PipelineBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hearthscout", Name: "pipeline_batch_size",
			Help:    "Rows per cleaning pass.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)
	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hearthscout", Name: "pipeline_duration_seconds",
			Help:    "Cleaning pass duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hearthscout", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

// Serve starts the standalone metrics listener when METRICS_ADDR is set.
func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency,
		FetchRequests, FetchLatency,
		Cards, FallbackBatches,
		PipelineBatchSize, PipelineDuration,
		CacheEvents,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveFetch(source, outcome string, dur time.Duration) {
	FetchRequests.WithLabelValues(source, outcome).Inc()
	FetchLatency.WithLabelValues(source).Observe(dur.Seconds())
}

func ObserveCards(source string, parsed, skipped int) {
	Cards.WithLabelValues(source, "parsed").Add(float64(parsed))
	Cards.WithLabelValues(source, "skipped").Add(float64(skipped))
}

func ObserveFallback(source string) {
	FallbackBatches.WithLabelValues(source).Inc()
}

func ObservePipeline(rows int, dur time.Duration) {
	PipelineBatchSize.Observe(float64(rows))
	PipelineDuration.Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
