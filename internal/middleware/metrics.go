package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests no route matched, keeping 404 scans from
// creating one series per path.
const unmatchedRoute = "unmatched"

// MetricsConfig configures the HTTP metrics middleware.
type MetricsConfig struct {
	Registerer prometheus.Registerer
	Namespace  string
	Buckets    []float64
	// Skip excludes requests from instrumentation (e.g. /metrics itself).
	Skip func(r *http.Request) bool
}

// HTTPMetrics returns a middleware recording request durations by status,
// method and chi route pattern.
func HTTPMetrics(cfg MetricsConfig) (func(http.Handler) http.Handler, error) {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = prometheus.DefBuckets
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   cfg.Buckets,
	}, []string{"code", "method", "route"})

	if err := cfg.Registerer.Register(duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			route := routePattern(r)
			if route == "" {
				route = unmatchedRoute
			}

			duration.WithLabelValues(strconv.Itoa(wrapped.status), r.Method, route).
				Observe(time.Since(start).Seconds())
		})
	}, nil
}
