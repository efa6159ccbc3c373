package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
)

const noContextAnswer = "I couldn't find relevant information in the indexed documents to answer this question."

// AnswererConfig carries the generation budgets. Budgets are rune counts on
// the assembled prompt context, not token counts; they are sized well below
// the model context window so the margin absorbs tokenization variance.
type AnswererConfig struct {
	DefaultK          int
	ContextCharBudget int
	SummaryCharBudget int
	MaxOutputTokens   int
}

// Answerer turns retrieval results into grounded answers and documents into
// summaries. Degraded outcomes (nothing retrieved, nothing fits the budget)
// are structured results, not errors; only boundary failures surface as
// errors.
type Answerer struct {
	retriever ports.Retriever
	generator ports.Generator
	store     ports.DocumentStore
	cfg       AnswererConfig
	logger    *slog.Logger
}

func NewAnswerer(
	retriever ports.Retriever,
	generator ports.Generator,
	store ports.DocumentStore,
	cfg AnswererConfig,
	logger *slog.Logger,
) *Answerer {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 3
	}
	if cfg.ContextCharBudget <= 0 {
		cfg.ContextCharBudget = 12000
	}
	if cfg.SummaryCharBudget <= 0 {
		cfg.SummaryCharBudget = 16000
	}
	return &Answerer{retriever: retriever, generator: generator, store: store, cfg: cfg, logger: logger}
}

func (s *Answerer) Ask(ctx context.Context, question string, k int) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("question is empty"))
	}
	if k <= 0 {
		k = s.cfg.DefaultK
	}

	retrieval, err := s.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}
	if len(retrieval.Chunks) == 0 {
		s.logger.Info("ask_no_context", "question_len", utf8.RuneCountInString(question))
		return &domain.Answer{
			Status:  domain.AnswerCompleted,
			Reason:  domain.ReasonNoContext,
			Text:    noContextAnswer,
			Sources: []domain.Citation{},
		}, nil
	}

	used, blocks := s.fitToBudget(retrieval.Chunks)
	if len(used) == 0 {
		s.logger.Warn("ask_context_overflow", "retrieved", len(retrieval.Chunks))
		return &domain.Answer{
			Status:  domain.AnswerFailed,
			Reason:  domain.ReasonInsufficientContext,
			Text:    "The retrieved passages are too large to fit the generation budget.",
			Sources: citations(retrieval.Chunks),
		}, nil
	}
	if len(used) < len(retrieval.Chunks) {
		s.logger.Info("ask_context_trimmed", "retrieved", len(retrieval.Chunks), "used", len(used))
	}

	text, err := s.generator.Generate(ctx, buildQAPrompt(question, blocks), s.cfg.MaxOutputTokens)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Status:      domain.AnswerCompleted,
		Text:        text,
		Sources:     citations(used),
		ContextUsed: used,
	}, nil
}

// fitToBudget keeps chunks in retrieval order (descending score) while the
// rendered block total stays within the budget, dropping the lowest-scored
// tail. The first chunk is kept even alone only if its block fits.
func (s *Answerer) fitToBudget(chunks []domain.RetrievedChunk) ([]domain.RetrievedChunk, []string) {
	var (
		used   []domain.RetrievedChunk
		blocks []string
		total  int
	)
	for i, chunk := range chunks {
		block := contextBlock(i+1, chunk)
		size := utf8.RuneCountInString(block)
		if total+size > s.cfg.ContextCharBudget {
			break
		}
		total += size
		used = append(used, chunk)
		blocks = append(blocks, block)
	}
	return used, blocks
}

func citations(chunks []domain.RetrievedChunk) []domain.Citation {
	sources := make([]domain.Citation, len(chunks))
	for i, chunk := range chunks {
		sources[i] = domain.Citation{
			ChunkID:    chunk.ChunkID,
			DocumentID: chunk.DocumentID,
			Title:      chunk.Title,
			Citation:   chunk.Citation,
			Score:      chunk.Score,
		}
	}
	return sources
}
