package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
)

// Indexer turns a stored document into searchable chunks. Chunk rows and
// their vectors commit together or not at all: vectors are staged against
// the index and only made visible once the chunk transaction commits.
// Reindexing a document replaces its previous chunk rows and vectors.
type Indexer struct {
	store     ports.DocumentStore
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.VectorIndex
	indexPath string
	logger    *slog.Logger
}

func NewIndexer(
	store ports.DocumentStore,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	indexPath string,
	logger *slog.Logger,
) *Indexer {
	return &Indexer{
		store:     store,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		indexPath: indexPath,
		logger:    logger,
	}
}

func (s *Indexer) IndexByID(ctx context.Context, documentID string) error {
	doc, err := s.store.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, documentID, domain.StatusIndexing, "", 0); err != nil {
		return err
	}

	if err := s.indexDocument(ctx, doc); err != nil {
		s.markFailed(ctx, documentID, err)
		return err
	}
	return nil
}

func (s *Indexer) indexDocument(ctx context.Context, doc *domain.Document) error {
	spans := s.chunker.Split(doc.Text)
	if len(spans) == 0 {
		return s.store.UpdateStatus(ctx, doc.ID, domain.StatusReady, "", 0)
	}

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(spans) {
		return domain.WrapError(domain.ErrEmbeddingService, "index document",
			fmt.Errorf("embedded %d of %d chunks", len(vectors), len(spans)))
	}
	for _, vector := range vectors {
		normalizeInPlace(vector)
	}

	chunkIDs := make([]string, len(spans))
	for i, span := range spans {
		chunkIDs[i] = domain.ChunkID(doc.ID, span.Index)
	}

	staged, err := s.index.Stage(doc.ID, chunkIDs, vectors)
	if err != nil {
		return err
	}

	tx, err := s.store.ReplaceChunks(ctx, doc.ID)
	if err != nil {
		staged.Discard()
		return err
	}
	for i, span := range spans {
		chunk := domain.Chunk{
			ID:         chunkIDs[i],
			DocumentID: doc.ID,
			Index:      span.Index,
			Start:      span.Start,
			End:        span.End,
			Text:       span.Text,
		}
		if err := tx.Put(chunk); err != nil {
			_ = tx.Rollback()
			staged.Discard()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		staged.Discard()
		return err
	}
	staged.Commit()

	if err := s.index.Save(s.indexPath); err != nil {
		// Chunks and vectors are live in memory but the artifact on disk is
		// stale; a restart would lose them. Fail the document so it gets
		// reindexed rather than silently degrade after restart.
		return err
	}

	if err := s.store.UpdateStatus(ctx, doc.ID, domain.StatusReady, "", len(spans)); err != nil {
		return err
	}
	s.logger.Info("document_indexed", "document_id", doc.ID, "chunks", len(spans), "index_size", s.index.Len())
	return nil
}

func (s *Indexer) markFailed(ctx context.Context, documentID string, cause error) {
	if err := s.store.UpdateStatus(ctx, documentID, domain.StatusFailed, cause.Error(), 0); err != nil {
		s.logger.Error("mark_failed", "document_id", documentID, "error", err)
	}
	s.logger.Error("indexing_failed", "document_id", documentID, "error", cause)
}

// normalizeInPlace scales the vector to unit length so inner product equals
// cosine similarity. Zero vectors are left untouched.
func normalizeInPlace(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
}
