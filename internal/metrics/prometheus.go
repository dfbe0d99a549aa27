package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loposkin/tinkoff-task1/internal/status"
)

const (
	namespace = "status_racer"
	unmatched = "unmatched"
)

var (
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_attempts_total",
			Help:      "Total number of endpoint queries by outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	attemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_attempt_duration_seconds",
			Help:      "Endpoint query latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_retries_total",
			Help:      "Total number of retries performed after a retry-after answer.",
		},
		[]string{"endpoint"},
	)

	retryDelay = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_retry_delay_seconds",
			Help:      "Delay requested by endpoints before a retry.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	endpointHealthy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoint_healthy",
			Help:      "1 when the last health probe succeeded.",
		},
		[]string{"endpoint"},
	)

	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of status operations by resolution.",
		},
		[]string{"resolution"},
	)

	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Status operation duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"resolution"},
	)

	callRetries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_retries",
			Help:      "Retries performed across all endpoints per status operation.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		},
	)

	droppedEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Metric events dropped because the collector buffer was full.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		attemptsTotal,
		attemptDuration,
		retriesTotal,
		retryDelay,
		endpointHealthy,
		callsTotal,
		callDuration,
		callRetries,
		droppedEventsTotal,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

func observeAttempt(endpoint, outcome string, latency time.Duration) {
	attemptsTotal.WithLabelValues(endpoint, outcome).Inc()
	if outcome != OutcomeCircuitOpen {
		attemptDuration.WithLabelValues(endpoint).Observe(latency.Seconds())
	}
}

func observeRetry(endpoint string, delay time.Duration) {
	retriesTotal.WithLabelValues(endpoint).Inc()
	retryDelay.WithLabelValues(endpoint).Observe(delay.Seconds())
}

func observeCall(resolution status.Resolution, duration time.Duration, retries int) {
	callsTotal.WithLabelValues(string(resolution)).Inc()
	callDuration.WithLabelValues(string(resolution)).Observe(duration.Seconds())
	callRetries.Observe(float64(retries))
}

func observeHealth(endpoint string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	endpointHealthy.WithLabelValues(endpoint).Set(v)
}

// Middleware records request count and duration for every HTTP request.
// Paths are labelled with the chi route pattern to bound cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(code)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatched
}

// PrometheusHandler exposes the default registry.
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}
