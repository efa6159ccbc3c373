package domain

import (
	"strconv"
	"time"
)

type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusIndexing DocumentStatus = "indexing"
	StatusReady    DocumentStatus = "ready"
	StatusFailed   DocumentStatus = "failed"
)

// Document is an ingested source text. Created at ingestion, immutable
// afterwards except for its indexing status.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text,omitempty"`
	Citation string `json:"citation,omitempty"`
	Issuer   string `json:"issuer,omitempty"`
	IssuedAt string `json:"issued_at,omitempty"`

	Status     DocumentStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	ChunkCount int            `json:"chunk_count,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ChunkSpan is a bounded contiguous span of a document's text produced by
// the splitter. Offsets are rune offsets into the parent text, so
// text[Start:End] (on runes) reproduces Text exactly.
type ChunkSpan struct {
	Index int
	Start int
	End   int
	Text  string
}

// Chunk is the atomic unit of retrieval: a span tied to its parent document.
// Chunk ids are deterministic: "<document id>_<chunk index>".
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text"`
}

func ChunkID(documentID string, index int) string {
	return documentID + "_" + strconv.Itoa(index)
}
