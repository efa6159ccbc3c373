package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

func TestIngestStoresAndPublishes(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	ingestor := NewIngestor(store, queue, &fakeStorage{}, &fakeExtractor{}, testLogger())

	doc, err := ingestor.Ingest(context.Background(), domain.Document{
		ID:    "case-001",
		Title: "Smith v. Jones",
		Text:  "The court held that the contract was enforceable.",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.Status != domain.StatusPending {
		t.Errorf("status = %q, want pending", doc.Status)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	stored, err := store.GetByID(context.Background(), "case-001")
	if err != nil {
		t.Fatalf("stored document missing: %v", err)
	}
	if stored.Title != "Smith v. Jones" {
		t.Errorf("stored title = %q", stored.Title)
	}
	if len(queue.published) != 1 || queue.published[0] != "case-001" {
		t.Errorf("published = %v, want [case-001]", queue.published)
	}
}

func TestIngestRejectsMissingFields(t *testing.T) {
	ingestor := NewIngestor(newFakeStore(), &fakeQueue{}, &fakeStorage{}, &fakeExtractor{}, testLogger())

	cases := []struct {
		name string
		doc  domain.Document
	}{
		{"missing id", domain.Document{Title: "t", Text: "body"}},
		{"missing title", domain.Document{ID: "x", Text: "body"}},
		{"missing text", domain.Document{ID: "x", Title: "t"}},
		{"whitespace text", domain.Document{ID: "x", Title: "t", Text: "   \n"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ingestor.Ingest(context.Background(), tc.doc); !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestIngestPublishFailureLeavesDocumentPending(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{publishErr: context.DeadlineExceeded}
	ingestor := NewIngestor(store, queue, &fakeStorage{}, &fakeExtractor{}, testLogger())

	_, err := ingestor.Ingest(context.Background(), domain.Document{ID: "d1", Title: "t", Text: "body"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}

	stored, err := store.GetByID(context.Background(), "d1")
	if err != nil {
		t.Fatalf("document should be stored despite publish failure: %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("status = %q, want pending", stored.Status)
	}
}

func TestIngestUploadExtractsAndIngests(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	storage := &fakeStorage{}
	extractor := &fakeExtractor{text: "extracted body text"}
	ingestor := NewIngestor(store, queue, storage, extractor, testLogger())

	doc, err := ingestor.IngestUpload(context.Background(), "ruling.pdf", strings.NewReader("%PDF-1.4 raw bytes"))
	if err != nil {
		t.Fatalf("IngestUpload: %v", err)
	}
	if doc.Title != "ruling" {
		t.Errorf("title = %q, want filename without extension", doc.Title)
	}
	if doc.Text != "extracted body text" {
		t.Errorf("text = %q", doc.Text)
	}
	if doc.ID == "" {
		t.Error("expected generated id")
	}
	if len(storage.saved) != 1 {
		t.Errorf("raw file not saved, storage = %v", storage.saved)
	}
	for key := range storage.saved {
		if !strings.HasSuffix(key, ".pdf") {
			t.Errorf("storage key %q should keep the extension", key)
		}
	}
	if len(queue.published) != 1 {
		t.Errorf("published = %v", queue.published)
	}
}

func TestIngestUploadExtractionFailureSavesNothing(t *testing.T) {
	storage := &fakeStorage{}
	extractor := &fakeExtractor{err: domain.WrapError(domain.ErrInvalidInput, "extract", errors.New("unsupported extension"))}
	ingestor := NewIngestor(newFakeStore(), &fakeQueue{}, storage, extractor, testLogger())

	_, err := ingestor.IngestUpload(context.Background(), "broken.xyz", strings.NewReader("raw"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(storage.saved) != 0 {
		t.Errorf("unparseable upload left objects in storage: %v", storage.saved)
	}
}

func TestIngestUploadRemovesObjectWhenIngestRejects(t *testing.T) {
	storage := &fakeStorage{}
	// Extraction succeeds but yields only whitespace, so Ingest rejects the
	// document after the object was saved.
	ingestor := NewIngestor(newFakeStore(), &fakeQueue{}, storage, &fakeExtractor{text: "   "}, testLogger())

	_, err := ingestor.IngestUpload(context.Background(), "blank.txt", strings.NewReader("raw"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(storage.saved) != 0 {
		t.Errorf("rejected upload left objects in storage: %v", storage.saved)
	}
}

func TestIngestUploadKeepsObjectOnPublishFailure(t *testing.T) {
	storage := &fakeStorage{}
	queue := &fakeQueue{publishErr: errors.New("nats down")}
	ingestor := NewIngestor(newFakeStore(), queue, storage, &fakeExtractor{text: "body"}, testLogger())

	_, err := ingestor.IngestUpload(context.Background(), "kept.txt", strings.NewReader("raw"))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	// The pending document row references the object; it must survive.
	if len(storage.saved) != 1 {
		t.Errorf("storage = %v, want the object kept", storage.saved)
	}
}

func TestIngestUploadRejectsEmptyBody(t *testing.T) {
	ingestor := NewIngestor(newFakeStore(), &fakeQueue{}, &fakeStorage{}, &fakeExtractor{}, testLogger())
	if _, err := ingestor.IngestUpload(context.Background(), "empty.txt", strings.NewReader("")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type sliceDataset struct {
	records []domain.Document
}

func (s sliceDataset) Read(ctx context.Context, handle func(context.Context, domain.Document) error) error {
	for _, record := range s.records {
		if err := handle(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func TestLoadDatasetCountsRejects(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	ingestor := NewIngestor(store, queue, &fakeStorage{}, &fakeExtractor{}, testLogger())

	source := sliceDataset{records: []domain.Document{
		{ID: "a", Title: "A", Text: "first body"},
		{ID: "", Title: "broken", Text: "no id"},
		{ID: "b", Title: "B", Text: "second body"},
	}}
	accepted, rejected, err := ingestor.LoadDataset(context.Background(), source)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if accepted != 2 || rejected != 1 {
		t.Errorf("accepted=%d rejected=%d, want 2/1", accepted, rejected)
	}
	if len(queue.published) != 2 {
		t.Errorf("published = %v", queue.published)
	}
}
