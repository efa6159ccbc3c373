package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
)

// Ingestor accepts documents into the store and schedules them for
// indexing. Accepted documents start in status pending; the indexer worker
// moves them forward.
type Ingestor struct {
	store     ports.DocumentStore
	queue     ports.MessageQueue
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	logger    *slog.Logger
	now       func() time.Time
}

func NewIngestor(
	store ports.DocumentStore,
	queue ports.MessageQueue,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	logger *slog.Logger,
) *Ingestor {
	return &Ingestor{
		store:     store,
		queue:     queue,
		storage:   storage,
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Ingestor) Ingest(ctx context.Context, doc domain.Document) (*domain.Document, error) {
	doc.ID = strings.TrimSpace(doc.ID)
	doc.Title = strings.TrimSpace(doc.Title)
	if doc.ID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest", fmt.Errorf("document id is required"))
	}
	if doc.Title == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest", fmt.Errorf("document title is required"))
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest", fmt.Errorf("document text is required"))
	}

	now := s.now().UTC()
	doc.Status = domain.StatusPending
	doc.Error = ""
	doc.ChunkCount = 0
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := s.store.Put(ctx, &doc); err != nil {
		return nil, err
	}
	if err := s.queue.PublishDocumentPending(ctx, doc.ID); err != nil {
		// The document is stored; only scheduling failed. It stays pending
		// and a dataset reload or republish can pick it up.
		s.logger.Error("publish_pending_failed", "document_id", doc.ID, "error", err)
		return nil, domain.WrapError(domain.ErrTemporary, "ingest", err)
	}

	s.logger.Info("document_ingested", "document_id", doc.ID, "title", doc.Title, "text_len", len(doc.Text))
	return &doc, nil
}

func (s *Ingestor) IngestUpload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest upload", fmt.Errorf("filename is required"))
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest upload", fmt.Errorf("read body: %w", err))
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest upload", fmt.Errorf("empty file"))
	}

	// Extract before saving so a file that cannot be parsed never lands in
	// storage.
	text, err := s.extractor.Extract(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	key := id + strings.ToLower(filepath.Ext(filename))
	if err := s.storage.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	doc, err := s.Ingest(ctx, domain.Document{ID: id, Title: title, Text: text})
	if err == nil {
		return doc, nil
	}
	// ErrTemporary means the document row exists and still references the
	// object; anything else left it orphaned.
	if !domain.IsKind(err, domain.ErrTemporary) {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("upload_cleanup_failed", "key", key, "error", delErr)
		}
	}
	return nil, err
}

// LoadDataset streams records from the source, ingesting valid ones and
// counting rejects. A malformed record does not abort the load.
func (s *Ingestor) LoadDataset(ctx context.Context, source ports.DatasetSource) (int, int, error) {
	var accepted, rejected int
	err := source.Read(ctx, func(ctx context.Context, record domain.Document) error {
		if _, err := s.Ingest(ctx, record); err != nil {
			if domain.IsKind(err, domain.ErrInvalidInput) {
				rejected++
				s.logger.Warn("dataset_record_rejected", "document_id", record.ID, "error", err)
				return nil
			}
			return err
		}
		accepted++
		return nil
	})
	if err != nil {
		return accepted, rejected, err
	}
	s.logger.Info("dataset_loaded", "accepted", accepted, "rejected", rejected)
	return accepted, rejected, nil
}
