package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lexilocal/lexilocal/internal/observability/metrics"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID assigns a request id when the client did not send one and makes
// it available downstream in the context and the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// AccessLog logs one line per request with latency and status, and feeds
// the HTTP collectors when metrics are wired.
func AccessLog(logger *slog.Logger, m *metrics.API) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			if m != nil {
				m.RequestsInFlight.Inc()
				defer m.RequestsInFlight.Dec()
			}

			next.ServeHTTP(recorder, r)

			elapsed := time.Since(start)
			route := r.URL.Path
			if pattern := r.Pattern; pattern != "" {
				route = pattern
			}
			if m != nil {
				m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
				m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
			}
			logger.Info("http_request",
				"request_id", requestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration_ms", elapsed.Milliseconds(),
			)
		})
	}
}

// MaxBody caps request body size so an oversized upload fails fast with a
// clear status instead of exhausting memory.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
