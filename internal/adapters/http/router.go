package http

import (
	"log/slog"
	"net/http"

	"github.com/lexilocal/lexilocal/internal/observability/metrics"
)

type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	MaxBodyBytes   int64
}

// NewRouter wires routes and middleware. Order matters: the request id and
// access log see every request, traffic control runs before any handler
// work, the body cap before any decoding.
func NewRouter(handlers *Handlers, m *metrics.API, logger *slog.Logger, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handlers.health)
	mux.HandleFunc("POST /v1/documents", handlers.ingestDocument)
	mux.HandleFunc("POST /v1/documents/upload", handlers.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{id}", handlers.getDocument)
	mux.HandleFunc("POST /v1/datasets/load", handlers.loadDataset)
	mux.HandleFunc("POST /v1/rag/query", handlers.ragQuery)
	mux.HandleFunc("POST /v1/rag/summarize", handlers.ragSummarize)
	mux.HandleFunc("POST /v1/search", handlers.search)

	var handler http.Handler = mux
	handler = MaxBody(cfg.MaxBodyBytes)(handler)
	if cfg.MaxConcurrent > 0 {
		handler = Backpressure(cfg.MaxConcurrent)(handler)
	}
	if cfg.RateLimitRPS > 0 {
		handler = RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)(handler)
	}
	handler = AccessLog(logger, m)(handler)
	handler = RequestID(handler)
	return handler
}
