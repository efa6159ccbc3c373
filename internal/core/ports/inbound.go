package ports

import (
	"context"
	"io"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document ingestion.
type DocumentIngestor interface {
	Ingest(ctx context.Context, doc domain.Document) (*domain.Document, error)
	IngestUpload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error)
}

// DatasetLoader bulk-ingests documents from an external dataset source.
type DatasetLoader interface {
	LoadDataset(ctx context.Context, source DatasetSource) (accepted int, rejected int, err error)
}

// DocumentIndexer is the inbound contract for asynchronous indexing.
type DocumentIndexer interface {
	IndexByID(ctx context.Context, documentID string) error
}

// Retriever answers "given a query string, return the top-k most relevant
// chunks with metadata".
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}

// AnswerService is the inbound contract for grounded question answering and
// summarization.
type AnswerService interface {
	Ask(ctx context.Context, question string, k int) (*domain.Answer, error)
	SummarizeText(ctx context.Context, text string) (*domain.Summary, error)
	SummarizeByTitle(ctx context.Context, title string) (*domain.Summary, error)
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
