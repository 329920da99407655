package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estimator_http_requests_total",
		Help: "HTTP requests processed, by method and status.",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "estimator_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// Metrics records request counts and latency for the /metrics endpoint.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		timer := prometheus.NewTimer(requestDuration.WithLabelValues(r.Method))
		next.ServeHTTP(recorder, r)
		timer.ObserveDuration()

		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
	})
}
