package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// record tolerates the two common field spellings in case-law dumps. The
// first non-empty alternative wins.
type record struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	Document string `json:"document"`
	Citation string `json:"citation"`
	Issuer   string `json:"court"`
	IssuedAt string `json:"decision_date"`
}

// maxRecordBytes bounds a single JSONL line. Court opinions run long but a
// multi-megabyte single record is a corrupt dump, not a document.
const maxRecordBytes = 16 << 20

// JSONLSource streams documents from a JSON-lines reader, one record per
// line. Blank lines are skipped; a syntactically broken line aborts the
// load with the line number in the error.
type JSONLSource struct {
	reader io.Reader
}

func NewJSONLSource(reader io.Reader) *JSONLSource {
	return &JSONLSource{reader: reader}
}

func (s *JSONLSource) Read(ctx context.Context, handle func(context.Context, domain.Document) error) error {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return domain.WrapError(domain.ErrInvalidInput, "dataset", fmt.Errorf("line %d: %w", line, err))
		}
		if err := handle(ctx, rec.toDocument()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "dataset", err)
	}
	return nil
}

func (r record) toDocument() domain.Document {
	title := r.Title
	if title == "" {
		title = r.Name
	}
	text := r.Text
	if text == "" {
		text = r.Document
	}
	return domain.Document{
		ID:       r.ID,
		Title:    title,
		Text:     text,
		Citation: r.Citation,
		Issuer:   r.Issuer,
		IssuedAt: r.IssuedAt,
	}
}
