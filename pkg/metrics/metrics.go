package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "styletext",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "styletext",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "styletext",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s, rewrites are slow
		},
		[]string{"method", "path"},
	)

	transformations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "styletext",
			Subsystem: "transform",
			Name:      "completed_total",
			Help:      "Transformations persisted, by caller kind.",
		},
		[]string{"caller"},
	)

	quotaDenied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "styletext",
			Subsystem: "transform",
			Name:      "quota_denied_total",
			Help:      "Guest transform requests rejected by the usage quota.",
		},
	)

	rewriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "styletext",
			Subsystem: "rewriter",
			Name:      "failures_total",
			Help:      "Failed calls to the rewrite provider.",
		},
		[]string{"provider"},
	)

	rewriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "styletext",
			Subsystem: "rewriter",
			Name:      "call_duration_seconds",
			Help:      "Duration of rewrite provider calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider"},
	)

	guestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "styletext",
			Subsystem: "guest",
			Name:      "created_total",
			Help:      "Guest identities minted.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		transformations,
		quotaDenied,
		rewriteFailures,
		rewriteDuration,
		guestsCreated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordTransformation counts a persisted transformation; caller is "account" or "guest".
func RecordTransformation(caller string) {
	transformations.WithLabelValues(caller).Inc()
}

func RecordQuotaDenied() {
	quotaDenied.Inc()
}

// RecordRewrite observes one provider call.
func RecordRewrite(provider string, duration time.Duration, err error) {
	if provider == "" {
		provider = "unknown"
	}
	rewriteDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if err != nil {
		rewriteFailures.WithLabelValues(provider).Inc()
	}
}

func RecordGuestCreated() {
	guestsCreated.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// canonicalPath keeps label cardinality bounded; only known API routes are kept verbatim.
func canonicalPath(raw string) string {
	switch raw {
	case "/api/transform", "/api/transformations", "/api/guest/init", "/api/guest/usage",
		"/api/register", "/api/login", "/api/logout", "/api/user", "/healthz":
		return raw
	}
	if strings.HasPrefix(raw, "/api/") {
		return "/api/other"
	}
	return "/other"
}
