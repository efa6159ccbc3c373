package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
	"github.com/lexilocal/lexilocal/internal/infrastructure/dataset"
	"github.com/lexilocal/lexilocal/internal/observability/metrics"
)

type Handlers struct {
	ingestor  ports.DocumentIngestor
	loader    ports.DatasetLoader
	reader    ports.DocumentReader
	retriever ports.Retriever
	answerer  ports.AnswerService
	metrics   *metrics.API
	logger    *slog.Logger
}

func NewHandlers(
	ingestor ports.DocumentIngestor,
	loader ports.DatasetLoader,
	reader ports.DocumentReader,
	retriever ports.Retriever,
	answerer ports.AnswerService,
	m *metrics.API,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		ingestor:  ingestor,
		loader:    loader,
		reader:    reader,
		retriever: retriever,
		answerer:  answerer,
		metrics:   m,
		logger:    logger,
	}
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ingestRequest struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Citation string `json:"citation"`
	Issuer   string `json:"issuer"`
	IssuedAt string `json:"issued_at"`
}

func (h *Handlers) ingestDocument(w http.ResponseWriter, r *http.Request) {
	var request ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, domain.WrapError(domain.ErrInvalidInput, "decode document", err))
		return
	}
	doc, err := h.ingestor.Ingest(r.Context(), domain.Document{
		ID:       request.ID,
		Title:    request.Title,
		Text:     request.Text,
		Citation: request.Citation,
		Issuer:   request.Issuer,
		IssuedAt: request.IssuedAt,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	doc.Text = ""
	writeJSON(w, http.StatusAccepted, doc)
}

func (h *Handlers) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("form field %q: %w", "file", err)))
		return
	}
	defer file.Close()

	doc, err := h.ingestor.IngestUpload(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	doc.Text = ""
	writeJSON(w, http.StatusAccepted, doc)
}

func (h *Handlers) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.reader.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handlers) loadDataset(w http.ResponseWriter, r *http.Request) {
	accepted, rejected, err := h.loader.LoadDataset(r.Context(), dataset.NewJSONLSource(r.Body))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"accepted": accepted, "rejected": rejected})
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (h *Handlers) ragQuery(w http.ResponseWriter, r *http.Request) {
	var request queryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, domain.WrapError(domain.ErrInvalidInput, "decode query", err))
		return
	}

	start := time.Now()
	answer, err := h.answerer.Ask(r.Context(), request.Question, request.TopK)
	if err != nil {
		h.observeQuery("error", nil, start)
		writeError(w, h.logger, err)
		return
	}
	outcome := "answered"
	if answer.Reason != "" {
		outcome = answer.Reason
	}
	h.observeQuery(outcome, answer, start)
	writeJSON(w, http.StatusOK, answer)
}

func (h *Handlers) observeQuery(outcome string, answer *domain.Answer, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RAGQueriesTotal.WithLabelValues(outcome).Inc()
	h.metrics.RAGDuration.WithLabelValues("query").Observe(time.Since(start).Seconds())
	if answer != nil && outcome == "answered" {
		h.metrics.RetrievedChunks.Observe(float64(len(answer.ContextUsed)))
		if len(answer.ContextUsed) < len(answer.Sources) {
			h.metrics.ContextTrimmed.Inc()
		}
	}
}

type summarizeRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

func (h *Handlers) ragSummarize(w http.ResponseWriter, r *http.Request) {
	var request summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, domain.WrapError(domain.ErrInvalidInput, "decode summarize", err))
		return
	}
	if request.Text != "" && request.Title != "" {
		writeError(w, h.logger, domain.WrapError(domain.ErrInvalidInput, "summarize",
			fmt.Errorf("provide either text or title, not both")))
		return
	}

	start := time.Now()
	var (
		summary *domain.Summary
		err     error
	)
	if request.Title != "" {
		summary, err = h.answerer.SummarizeByTitle(r.Context(), request.Title)
	} else {
		summary, err = h.answerer.SummarizeText(r.Context(), request.Text)
	}
	if h.metrics != nil {
		h.metrics.RAGDuration.WithLabelValues("summarize").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	var request searchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, domain.WrapError(domain.ErrInvalidInput, "decode search", err))
		return
	}
	result, err := h.retriever.Retrieve(r.Context(), request.Query, request.TopK)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
