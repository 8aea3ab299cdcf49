package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusvote_cache_hits_total",
		Help: "Cache hits served without a backend call, by resource",
	}, []string{"resource"})

	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusvote_cache_misses_total",
		Help: "Cache misses that fell through to the backend, by resource",
	}, []string{"resource"})

	voteSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusvote_vote_submissions_total",
		Help: "Vote submissions issued to the backend, by outcome",
	}, []string{"status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusvote_api_request_duration_seconds",
		Help:    "Duration of requests to the election backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

func ObserveCacheHit(resource string) {
	cacheHitsTotal.WithLabelValues(resource).Inc()
}

func ObserveCacheMiss(resource string) {
	cacheMissesTotal.WithLabelValues(resource).Inc()
}

func ObserveVoteSubmission(status string) {
	voteSubmissionsTotal.WithLabelValues(status).Inc()
}

func ObserveRequestDuration(method string, seconds float64) {
	requestDuration.WithLabelValues(method).Observe(seconds)
}
