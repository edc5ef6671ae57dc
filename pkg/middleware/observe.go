package middleware

import (
	"net/http"
	"strings"
	"time"
)

// ObserveFunc receives the outcome of one request. Route is the path of the
// matched ServeMux pattern, or "unmatched" when no pattern applied.
type ObserveFunc func(method, route string, status int, duration time.Duration)

// Observe returns middleware that reports every request to fn after it
// completes. It must wrap a ServeMux so that the matched pattern is known.
func Observe(fn ObserveFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := r.Pattern
			if _, path, ok := strings.Cut(route, " "); ok {
				route = path
			}
			if route == "" {
				route = "unmatched"
			}
			fn(r.Method, route, rec.status, time.Since(start))
		})
	}
}

// MaxBytes returns middleware that limits request bodies to limit bytes.
// Reads past the limit fail, which JSON decoding reports as a bad request.
func MaxBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
