package dataset

import (
	"context"
	"strings"
	"testing"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

func collect(t *testing.T, input string) []domain.Document {
	t.Helper()
	var docs []domain.Document
	source := NewJSONLSource(strings.NewReader(input))
	err := source.Read(context.Background(), func(_ context.Context, doc domain.Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return docs
}

func TestReadStreamsRecords(t *testing.T) {
	input := `{"id":"1","title":"Smith v. Jones","text":"opinion one","citation":"1 U.S. 1"}
{"id":"2","title":"Doe v. Roe","text":"opinion two"}
`
	docs := collect(t, input)
	if len(docs) != 2 {
		t.Fatalf("got %d documents", len(docs))
	}
	if docs[0].Citation != "1 U.S. 1" || docs[1].ID != "2" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestReadAcceptsAlternateFieldNames(t *testing.T) {
	input := `{"id":"1","name":"In re Estate","document":"the full decision","court":"9th Cir.","decision_date":"1998-03-14"}`
	docs := collect(t, input)
	if len(docs) != 1 {
		t.Fatalf("got %d documents", len(docs))
	}
	doc := docs[0]
	if doc.Title != "In re Estate" || doc.Text != "the full decision" {
		t.Errorf("alternate fields not mapped: %+v", doc)
	}
	if doc.Issuer != "9th Cir." || doc.IssuedAt != "1998-03-14" {
		t.Errorf("court metadata lost: %+v", doc)
	}
}

func TestReadSkipsBlankLines(t *testing.T) {
	input := "\n{\"id\":\"1\",\"title\":\"t\",\"text\":\"x\"}\n\n\n{\"id\":\"2\",\"title\":\"t\",\"text\":\"y\"}\n"
	if docs := collect(t, input); len(docs) != 2 {
		t.Fatalf("got %d documents", len(docs))
	}
}

func TestReadBrokenLineReportsLineNumber(t *testing.T) {
	input := `{"id":"1","title":"t","text":"x"}
{not json}`
	source := NewJSONLSource(strings.NewReader(input))
	err := source.Read(context.Background(), func(context.Context, domain.Document) error { return nil })
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line: %v", err)
	}
}

func TestReadHandlerErrorAborts(t *testing.T) {
	input := `{"id":"1","title":"t","text":"x"}
{"id":"2","title":"t","text":"y"}`
	source := NewJSONLSource(strings.NewReader(input))
	calls := 0
	err := source.Read(context.Background(), func(context.Context, domain.Document) error {
		calls++
		return context.Canceled
	})
	if err == nil || calls != 1 {
		t.Fatalf("err=%v calls=%d, want abort after first", err, calls)
	}
}
