package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestRecorder is implemented by metrics.Collector.
type RequestRecorder interface {
	RecordHTTPRequest(service, method, route string, status int, d time.Duration)
}

// Metrics records every request against its chi route pattern
// ("/favorites/{userId}/{movieId}"), not the raw path, to keep label
// cardinality bounded.
func Metrics(service string, rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			rec.RecordHTTPRequest(service, r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
