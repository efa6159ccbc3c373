package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

func TestExtractPlainText(t *testing.T) {
	dispatcher := NewDispatcher()
	text, err := dispatcher.Extract(context.Background(), "notes.txt", strings.NewReader("line one\r\nline two\n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "line one\nline two" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractMarkdownUsesPlainText(t *testing.T) {
	dispatcher := NewDispatcher()
	text, err := dispatcher.Extract(context.Background(), "README.md", strings.NewReader("# Title\nbody"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "body") {
		t.Errorf("text = %q", text)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	dispatcher := NewDispatcher()
	_, err := dispatcher.Extract(context.Background(), "sheet.xlsx", strings.NewReader("data"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExtractInvalidUTF8Replaced(t *testing.T) {
	dispatcher := NewDispatcher()
	text, err := dispatcher.Extract(context.Background(), "raw.txt", strings.NewReader("ok\xff\xfebytes"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "�") {
		t.Errorf("invalid bytes not replaced: %q", text)
	}
}

func TestExtractMalformedPDF(t *testing.T) {
	dispatcher := NewDispatcher()
	_, err := dispatcher.Extract(context.Background(), "broken.pdf", strings.NewReader("not a pdf"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
