package middleware

import (
	"net/http"
	"time"

	"github.com/sakif/snippet-vault/internal/metrics"
)

// Metrics records request counts and latencies, labelled by chi route pattern.
// The pattern is read after the handler runs, once chi has resolved it.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			m.ObserveRequest(r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
		})
	}
}
