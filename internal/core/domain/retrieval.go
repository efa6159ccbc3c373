package domain

// RetrievedChunk is one retrieval hit with its parent document metadata
// attached. Score is inner-product similarity over normalized vectors
// (equivalent to cosine), except in hybrid mode where it is a fused rank
// score.
type RetrievedChunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Citation   string  `json:"citation,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// RetrievalResult is ordered by descending score, length <= requested k.
// Empty is a valid result, not an error.
type RetrievalResult struct {
	Chunks []RetrievedChunk `json:"chunks"`
}

// Answer reason codes for structured degraded outcomes.
const (
	ReasonNoContext           = "no_context"
	ReasonInsufficientContext = "insufficient_context"
)

type AnswerStatus string

const (
	AnswerCompleted AnswerStatus = "completed"
	AnswerFailed    AnswerStatus = "failed"
)

// Citation references a document/chunk that supported an answer.
type Citation struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Citation   string  `json:"citation,omitempty"`
	Score      float64 `json:"score"`
}

// Answer is the structured output of a grounded question. ContextUsed lists
// the chunks actually supplied to the generation service after budget
// trimming, kept for auditability even if the model ignored some of them.
type Answer struct {
	Status      AnswerStatus     `json:"status"`
	Reason      string           `json:"reason,omitempty"`
	Text        string           `json:"text"`
	Sources     []Citation       `json:"sources"`
	ContextUsed []RetrievedChunk `json:"context_used"`
}

// Summary is the structured output of document summarization. Truncated is
// set when the document text was cut to fit the generation input budget, so
// callers know the summary may be partial.
type Summary struct {
	Text      string      `json:"text"`
	Truncated bool        `json:"truncated"`
	Source    *SummarySrc `json:"source,omitempty"`
}

type SummarySrc struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Citation   string `json:"citation,omitempty"`
}
