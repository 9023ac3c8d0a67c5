package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request count and latency labelled by route pattern.
// If the instruments cannot be created the middleware passes requests through.
func HTTPMiddleware(meterProvider metric.MeterProvider, namespace string) func(http.Handler) http.Handler {
	meter := meterProvider.Meter(namespace)

	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passThrough
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return passThrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			// r.Pattern заполняет ServeMux, сырой путь дал бы высокую кардинальность
			pattern := r.Pattern
			if pattern == "" {
				pattern = "unknown"
			}

			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", pattern),
				attribute.String("status_code", strconv.Itoa(rec.status)),
			)
			requests.Add(r.Context(), 1, attrs)
			durations.Record(r.Context(), time.Since(start).Seconds(), attrs)
		})
	}
}

func passThrough(next http.Handler) http.Handler {
	return next
}
