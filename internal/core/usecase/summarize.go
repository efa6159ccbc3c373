package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

func (s *Answerer) SummarizeText(ctx context.Context, text string) (*domain.Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "summarize", fmt.Errorf("text is empty"))
	}
	return s.summarize(ctx, text, nil)
}

// SummarizeByTitle resolves the document first so an unknown title fails
// before any generation call is made.
func (s *Answerer) SummarizeByTitle(ctx context.Context, title string) (*domain.Summary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "summarize by title", fmt.Errorf("title is empty"))
	}
	doc, err := s.store.GetByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	source := &domain.SummarySrc{DocumentID: doc.ID, Title: doc.Title, Citation: doc.Citation}
	return s.summarize(ctx, doc.Text, source)
}

func (s *Answerer) summarize(ctx context.Context, text string, source *domain.SummarySrc) (*domain.Summary, error) {
	truncated := false
	if runes := []rune(text); len(runes) > s.cfg.SummaryCharBudget {
		text = string(runes[:s.cfg.SummaryCharBudget])
		truncated = true
		s.logger.Info("summary_input_truncated", "budget", s.cfg.SummaryCharBudget)
	}

	summary, err := s.generator.Generate(ctx, buildSummaryPrompt(text), s.cfg.MaxOutputTokens)
	if err != nil {
		return nil, err
	}
	return &domain.Summary{Text: summary, Truncated: truncated, Source: source}, nil
}
