package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
)

// DocumentReader serves document metadata lookups. The stored body text is
// stripped from responses; callers that need content go through retrieval.
type DocumentReader struct {
	store ports.DocumentStore
}

func NewDocumentReader(store ports.DocumentStore) *DocumentReader {
	return &DocumentReader{store: store}
}

func (s *DocumentReader) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get document", fmt.Errorf("id is empty"))
	}
	doc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Text = ""
	return doc, nil
}
