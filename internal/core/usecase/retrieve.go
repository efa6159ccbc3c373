package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
)

const (
	ModeSemantic = "semantic"
	ModeHybrid   = "hybrid"
)

// RetrieverConfig carries the retrieval knobs. Zero values fall back to
// conservative defaults in NewRetriever.
//
// ScoreThreshold is a cosine-similarity floor on semantic hits. In hybrid
// mode it gates the semantic candidates before fusion; fused RRF scores are
// on a different scale (roughly 1/RRFConstant) and are never compared
// against it.
type RetrieverConfig struct {
	Mode             string
	DefaultK         int
	MaxK             int
	ScoreThreshold   float64
	HybridCandidates int
	RRFConstant      float64
	RerankTopN       int
}

// Retriever answers top-k chunk queries against the vector index, resolving
// hits to full chunk metadata through the document store. In hybrid mode it
// fuses semantic and lexical candidate lists before reranking.
type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	store    ports.DocumentStore
	cfg      RetrieverConfig
	logger   *slog.Logger
}

func NewRetriever(
	embedder ports.Embedder,
	index ports.VectorIndex,
	store ports.DocumentStore,
	cfg RetrieverConfig,
	logger *slog.Logger,
) *Retriever {
	if cfg.Mode == "" {
		cfg.Mode = ModeSemantic
	}
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 3
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = 10
	}
	if cfg.HybridCandidates <= 0 {
		cfg.HybridCandidates = 20
	}
	if cfg.RRFConstant <= 0 {
		cfg.RRFConstant = 60
	}
	if cfg.RerankTopN <= 0 {
		cfg.RerankTopN = cfg.HybridCandidates
	}
	return &Retriever{embedder: embedder, index: index, store: store, cfg: cfg, logger: logger}
}

func (s *Retriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.RetrievalResult{}, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("query is empty"))
	}
	if k <= 0 {
		k = s.cfg.DefaultK
	}
	if k > s.cfg.MaxK {
		k = s.cfg.MaxK
	}

	var (
		chunks []domain.RetrievedChunk
		err    error
	)
	if s.cfg.Mode == ModeHybrid {
		chunks, err = s.retrieveHybrid(ctx, query, k)
	} else {
		chunks, err = s.retrieveSemantic(ctx, query, k)
	}
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	if len(chunks) > k {
		chunks = chunks[:k]
	}
	return domain.RetrievalResult{Chunks: chunks}, nil
}

func (s *Retriever) retrieveSemantic(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	hits, err := s.searchVectors(ctx, query, k)
	if err != nil {
		return nil, err
	}
	chunks, err := s.resolveHits(ctx, hits)
	if err != nil {
		return nil, err
	}
	return s.applyThreshold(chunks), nil
}

// applyThreshold drops semantic hits below the cosine-similarity floor.
// Callers apply it before any score rescaling.
func (s *Retriever) applyThreshold(chunks []domain.RetrievedChunk) []domain.RetrievedChunk {
	if s.cfg.ScoreThreshold <= 0 {
		return chunks
	}
	kept := chunks[:0]
	for _, chunk := range chunks {
		if chunk.Score >= s.cfg.ScoreThreshold {
			kept = append(kept, chunk)
		}
	}
	return kept
}

func (s *Retriever) retrieveHybrid(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	candidates := s.cfg.HybridCandidates
	if candidates < k {
		candidates = k
	}

	hits, err := s.searchVectors(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	semantic, err := s.resolveHits(ctx, hits)
	if err != nil {
		return nil, err
	}
	semantic = s.applyThreshold(semantic)

	lexical, err := s.store.SearchLexical(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	fused := fuseRRF(s.cfg.RRFConstant, semantic, lexical)
	return rerankByOverlap(query, fused, s.cfg.RerankTopN), nil
}

func (s *Retriever) searchVectors(ctx context.Context, query string, k int) ([]ports.VectorHit, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	normalizeInPlace(vector)
	return s.index.Search(vector, k)
}

// resolveHits looks up chunk metadata for each vector hit. A hit whose chunk
// row is gone means the index and the store disagree; the hit is dropped and
// logged rather than failing the whole query.
func (s *Retriever) resolveHits(ctx context.Context, hits []ports.VectorHit) ([]domain.RetrievedChunk, error) {
	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.store.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if domain.IsKind(err, domain.ErrNotFound) {
				s.logger.Warn("index_consistency", "chunk_id", hit.ChunkID, "reason", "chunk row missing")
				continue
			}
			return nil, err
		}
		chunk.Score = hit.Score
		chunks = append(chunks, *chunk)
	}
	return chunks, nil
}
