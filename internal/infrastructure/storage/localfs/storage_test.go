package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := storage.Save(ctx, "doc.pdf", strings.NewReader("raw bytes")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reader, err := storage.Open(ctx, "doc.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()
	content, _ := io.ReadAll(reader)
	if string(content) != "raw bytes" {
		t.Errorf("content = %q", content)
	}
}

func TestOpenMissingKey(t *testing.T) {
	storage, _ := New(t.TempDir())
	_, err := storage.Open(context.Background(), "nope.pdf")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestKeySanitizedToBaseName(t *testing.T) {
	root := t.TempDir()
	storage, _ := New(root)
	ctx := context.Background()

	if err := storage.Save(ctx, "../../etc/passwd", strings.NewReader("data")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// The traversal prefix must be stripped, so the file opens by base name.
	reader, err := storage.Open(ctx, "passwd")
	if err != nil {
		t.Fatalf("Open by base name: %v", err)
	}
	reader.Close()
}

func TestDeleteRemovesObjectAndIgnoresMissing(t *testing.T) {
	storage, _ := New(t.TempDir())
	ctx := context.Background()

	if err := storage.Save(ctx, "doc.pdf", strings.NewReader("raw")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := storage.Delete(ctx, "doc.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := storage.Open(ctx, "doc.pdf"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("object still present after delete: %v", err)
	}
	if err := storage.Delete(ctx, "doc.pdf"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}

func TestEmptyRootRejected(t *testing.T) {
	if _, err := New("  "); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
