package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Indexer holds the worker-side collectors.
type Indexer struct {
	DocumentsProcessed *prometheus.CounterVec
	ChunksIndexed      prometheus.Counter
	IndexingDuration   prometheus.Histogram
	IndexSize          prometheus.Gauge
}

func NewIndexer(reg prometheus.Registerer) *Indexer {
	m := &Indexer{
		DocumentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "documents_processed_total",
			Help:      "Documents taken off the queue by final status (ready, failed).",
		}, []string{"status"}),
		ChunksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "chunks_indexed_total",
			Help:      "Chunk vectors added to the index.",
		}),
		IndexingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "document_duration_seconds",
			Help:      "Time to index one document end to end.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		IndexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "index_size",
			Help:      "Vectors currently in the index.",
		}),
	}
	reg.MustRegister(m.DocumentsProcessed, m.ChunksIndexed, m.IndexingDuration, m.IndexSize)
	return m
}
