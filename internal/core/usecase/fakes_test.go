package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	mu       sync.Mutex
	docs     map[string]domain.Document
	chunks   map[string]domain.RetrievedChunk
	statuses []domain.DocumentStatus

	putErr        error
	replaceErr    error
	commitErr     error
	lexicalHits   []domain.RetrievedChunk
	lexicalErr    error
	lexicalQuery  string
	updateFailErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:   make(map[string]domain.Document),
		chunks: make(map[string]domain.RetrievedChunk),
	}
}

func (f *fakeStore) Put(ctx context.Context, doc *domain.Document) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id %q", id))
	}
	return &doc, nil
}

func (f *fakeStore) GetByTitle(ctx context.Context, title string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if strings.EqualFold(doc.Title, title) {
			copied := doc
			return &copied, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get document by title", fmt.Errorf("title %q", title))
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string, chunkCount int) error {
	if f.updateFailErr != nil && status == domain.StatusReady {
		return f.updateFailErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update status", fmt.Errorf("id %q", id))
	}
	doc.Status = status
	doc.Error = errMessage
	doc.ChunkCount = chunkCount
	f.docs[id] = doc
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) GetChunk(ctx context.Context, chunkID string) (*domain.RetrievedChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chunk, ok := f.chunks[chunkID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get chunk", fmt.Errorf("chunk %q", chunkID))
	}
	return &chunk, nil
}

func (f *fakeStore) ReplaceChunks(ctx context.Context, documentID string) (ports.ChunkTx, error) {
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	return &fakeChunkTx{store: f, documentID: documentID}, nil
}

func (f *fakeStore) SearchLexical(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error) {
	f.lexicalQuery = query
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	if limit < len(f.lexicalHits) {
		return f.lexicalHits[:limit], nil
	}
	return f.lexicalHits, nil
}

func (f *fakeStore) chunkIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.chunks))
	for id := range f.chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type fakeChunkTx struct {
	store      *fakeStore
	documentID string
	pending    []domain.Chunk
	putErr     error
}

func (t *fakeChunkTx) Put(chunk domain.Chunk) error {
	if t.putErr != nil {
		return t.putErr
	}
	t.pending = append(t.pending, chunk)
	return nil
}

func (t *fakeChunkTx) Commit() error {
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, chunk := range t.store.chunks {
		if chunk.DocumentID == t.documentID {
			delete(t.store.chunks, id)
		}
	}
	doc := t.store.docs[t.documentID]
	for _, chunk := range t.pending {
		t.store.chunks[chunk.ID] = domain.RetrievedChunk{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Title:      doc.Title,
			Citation:   doc.Citation,
			ChunkIndex: chunk.Index,
			Text:       chunk.Text,
		}
	}
	return nil
}

func (t *fakeChunkTx) Rollback() error {
	t.pending = nil
	return nil
}

type fakeQueue struct {
	published  []string
	publishErr error
}

func (f *fakeQueue) PublishDocumentPending(ctx context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *fakeQueue) SubscribeDocumentPending(ctx context.Context, handler func(context.Context, string) error) error {
	return nil
}

type fakeEmbedder struct {
	dim      int
	embedErr error
	short    bool
	calls    [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vector := make([]float32, f.dim)
		for j := range vector {
			vector[j] = float32(len(texts[i])%7) + float32(i) + float32(j)*0.1 + 1
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	vector := make([]float32, f.dim)
	for j := range vector {
		vector[j] = 1
	}
	return vector, nil
}

type fakeIndex struct {
	hits      []ports.VectorHit
	searchErr error
	stageErr  error
	saveErr   error
	saved     int
	committed [][]string
	discarded int
	size      int
	byDoc     map[string]int
}

func (f *fakeIndex) Add(vector []float32, chunkID string) error { return nil }

func (f *fakeIndex) Stage(documentID string, chunkIDs []string, vectors [][]float32) (ports.StagedVectors, error) {
	if f.stageErr != nil {
		return nil, f.stageErr
	}
	return &fakeStaged{index: f, documentID: documentID, ids: chunkIDs}, nil
}

func (f *fakeIndex) Search(query []float32, k int) ([]ports.VectorHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) Len() int { return f.size }

func (f *fakeIndex) Save(path string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved++
	return nil
}

type fakeStaged struct {
	index      *fakeIndex
	documentID string
	ids        []string
}

// Commit mirrors the flat index: the batch replaces whatever the document
// had before.
func (s *fakeStaged) Commit() {
	if s.index.byDoc == nil {
		s.index.byDoc = make(map[string]int)
	}
	s.index.size += len(s.ids) - s.index.byDoc[s.documentID]
	s.index.byDoc[s.documentID] = len(s.ids)
	s.index.committed = append(s.index.committed, s.ids)
}

func (s *fakeStaged) Discard() { s.index.discarded++ }

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeRetriever struct {
	result domain.RetrievalResult
	err    error
	query  string
	k      int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	f.query, f.k = query, k
	return f.result, f.err
}

type fakeChunker struct {
	size int
}

func (f *fakeChunker) Split(text string) []domain.ChunkSpan {
	runes := []rune(text)
	var spans []domain.ChunkSpan
	for start := 0; start < len(runes); start += f.size {
		end := start + f.size
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, domain.ChunkSpan{
			Index: len(spans),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
	}
	return spans
}

type fakeStorage struct {
	saved map[string][]byte
}

func (f *fakeStorage) Save(ctx context.Context, key string, data io.Reader) error {
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = content
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.saved, key)
	return nil
}

func (f *fakeStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.saved[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open object", fmt.Errorf("key %q", key))
	}
	return io.NopCloser(strings.NewReader(string(content))), nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, filename string, data io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}
