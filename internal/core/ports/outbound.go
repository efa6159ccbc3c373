package ports

import (
	"context"
	"io"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// Chunker splits document text into bounded, overlapping spans. Pure
// function of the text and the splitter configuration.
type Chunker interface {
	Split(text string) []domain.ChunkSpan
}

// Embedder maps text to fixed-dimension vectors. Batch form preserves input
// order. Deterministic for the same text and model configuration.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator invokes the text-generation boundary once, blocking. Must
// surface model-unavailable and input-too-long conditions as
// distinguishable errors (domain.ErrGenerationService, domain.ErrInputTooLong).
type Generator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

// VectorHit is one nearest-neighbor search hit.
type VectorHit struct {
	ChunkID string
	Score   float64
}

// StagedVectors is a validated, not-yet-visible batch of vectors for one
// document. Commit atomically replaces the document's existing vectors with
// the batch; Discard drops it. Commit cannot fail once staging succeeded.
type StagedVectors interface {
	Commit()
	Discard()
}

// VectorIndex stores chunk vectors and answers k-nearest-neighbor queries
// by inner product. Writers must be serialized by the caller; readers may
// run concurrently with no writer active.
type VectorIndex interface {
	Add(vector []float32, chunkID string) error
	Stage(documentID string, chunkIDs []string, vectors [][]float32) (StagedVectors, error)
	Search(query []float32, k int) ([]VectorHit, error)
	Len() int
	Save(path string) error
}

// ChunkTx stages chunk rows for one document; commit pairs with the vector
// batch commit so that a partial failure leaves neither persisted.
type ChunkTx interface {
	Put(chunk domain.Chunk) error
	Commit() error
	Rollback() error
}

// DocumentStore owns document and chunk metadata.
type DocumentStore interface {
	Put(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByTitle(ctx context.Context, title string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string, chunkCount int) error
	GetChunk(ctx context.Context, chunkID string) (*domain.RetrievedChunk, error)
	ReplaceChunks(ctx context.Context, documentID string) (ChunkTx, error)
	SearchLexical(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error)
}

// MessageQueue publishes/consumes document indexing events.
type MessageQueue interface {
	PublishDocumentPending(ctx context.Context, documentID string) error
	SubscribeDocumentPending(ctx context.Context, handler func(context.Context, string) error) error
}

// ObjectStorage stores raw uploaded source files. Delete of a missing key
// is not an error.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// TextExtractor produces plain text from an uploaded file.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data io.Reader) (string, error)
}

// DatasetSource supplies candidate documents from an external dataset.
// Records missing required fields are rejected by the ingest use case.
type DatasetSource interface {
	Read(ctx context.Context, handle func(ctx context.Context, record domain.Document) error) error
}
