package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lexilocal"

// API holds the HTTP-facing collectors. Registered once at bootstrap and
// shared by the middleware and the RAG handlers.
type API struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	RAGQueriesTotal *prometheus.CounterVec
	RetrievedChunks prometheus.Histogram
	ContextTrimmed  prometheus.Counter
	RAGDuration     *prometheus.HistogramVec
}

func NewAPI(reg prometheus.Registerer) *API {
	m := &API{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		RAGQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "queries_total",
			Help:      "RAG queries by outcome (answered, no_context, insufficient_context, error).",
		}, []string{"outcome"}),
		RetrievedChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "retrieved_chunks",
			Help:      "Chunks supplied to the generator per answered query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		}),
		ContextTrimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "context_trimmed_total",
			Help:      "Queries where retrieved chunks were dropped to fit the prompt budget.",
		}),
		RAGDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "End-to-end latency of RAG operations.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),
	}
	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.RAGQueriesTotal,
		m.RetrievedChunks,
		m.ContextTrimmed,
		m.RAGDuration,
	)
	return m
}
