package http

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit rejects requests over the configured rate with 429 and a
// Retry-After hint. The limiter is global, not per client; this service
// fronts one local model, so total throughput is what needs protecting.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, errorResponse{
					Status: "failed",
					Reason: "rate_limited",
					Error:  "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Backpressure bounds in-flight requests. Generation requests hold a model
// busy for seconds; queueing more than the cap only builds latency debt.
func Backpressure(maxConcurrent int) func(http.Handler) http.Handler {
	slots := make(chan struct{}, maxConcurrent)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case slots <- struct{}{}:
				defer func() { <-slots }()
				next.ServeHTTP(w, r)
			default:
				writeJSON(w, http.StatusServiceUnavailable, errorResponse{
					Status: "failed",
					Reason: "overloaded",
					Error:  "server is at capacity",
				})
			}
		})
	}
}
