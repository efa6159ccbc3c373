package flat

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/core/ports"
)

// Index is a flat inner-product vector index. Every vector is scored
// against the query on search; results are exact, not approximate. The
// first inserted vector fixes the dimensionality. Vectors are expected to
// be L2-normalized by the caller, making inner product equal to cosine
// similarity.
type Index struct {
	mu      sync.RWMutex
	dim     int
	ids     []string
	vectors [][]float32
}

func New() *Index {
	return &Index{}
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ids)
}

// Dim returns the established dimensionality, 0 while the index is empty.
func (ix *Index) Dim() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

func (ix *Index) Add(vector []float32, chunkID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.checkDimLocked(len(vector)); err != nil {
		return err
	}
	ix.appendLocked(chunkID, vector)
	return nil
}

// Search returns at most k hits ordered by descending inner product. Ties
// are broken by insertion order, earlier inserted first. Searching an empty
// index returns an empty result. A query whose dimensionality differs from
// the index's is a hard error: this is where a persisted index built with
// another embedder configuration surfaces.
func (ix *Index) Search(query []float32, k int) ([]ports.VectorHit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.ids) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, domain.WrapError(domain.ErrDimensionMismatch, "index search",
			fmt.Errorf("query dimension %d, index dimension %d", len(query), ix.dim))
	}
	if k <= 0 {
		return nil, nil
	}

	order := make([]int, len(ix.vectors))
	scores := make([]float64, len(ix.vectors))
	for i, vec := range ix.vectors {
		order[i] = i
		scores[i] = dot(query, vec)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	hits := make([]ports.VectorHit, 0, k)
	for _, i := range order[:k] {
		hits = append(hits, ports.VectorHit{ChunkID: ix.ids[i], Score: scores[i]})
	}
	return hits, nil
}

// Stage validates a batch against the index without making it visible.
// Commit atomically swaps out the document's current vectors for the batch
// and cannot fail; Discard drops it. The swap keeps the index 1:1 with the
// document's chunk rows when a document is reindexed. This is the vector
// half of the chunk/vector indexing transaction.
func (ix *Index) Stage(documentID string, chunkIDs []string, vectors [][]float32) (ports.StagedVectors, error) {
	if len(chunkIDs) != len(vectors) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "stage vectors",
			fmt.Errorf("ids/vectors mismatch: %d/%d", len(chunkIDs), len(vectors)))
	}

	ix.mu.RLock()
	dim := ix.dim
	ix.mu.RUnlock()

	for i, vec := range vectors {
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) == 0 || len(vec) != dim {
			return nil, domain.WrapError(domain.ErrDimensionMismatch, "stage vectors",
				fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vec), dim))
		}
	}

	return &staged{index: ix, documentID: documentID, ids: chunkIDs, vectors: vectors}, nil
}

type staged struct {
	index      *Index
	documentID string
	ids        []string
	vectors    [][]float32
	done       bool
}

func (s *staged) Commit() {
	if s.done {
		return
	}
	s.done = true

	s.index.mu.Lock()
	defer s.index.mu.Unlock()
	s.index.removeDocumentLocked(s.documentID)
	for i := range s.ids {
		s.index.appendLocked(s.ids[i], s.vectors[i])
	}
}

func (s *staged) Discard() {
	s.done = true
	s.ids, s.vectors = nil, nil
}

func (ix *Index) checkDimLocked(dim int) error {
	if dim == 0 {
		return domain.WrapError(domain.ErrDimensionMismatch, "index add",
			fmt.Errorf("empty vector"))
	}
	if ix.dim != 0 && dim != ix.dim {
		return domain.WrapError(domain.ErrDimensionMismatch, "index add",
			fmt.Errorf("vector dimension %d, index dimension %d", dim, ix.dim))
	}
	return nil
}

func (ix *Index) appendLocked(id string, vector []float32) {
	if ix.dim == 0 {
		ix.dim = len(vector)
	}
	ix.ids = append(ix.ids, id)
	ix.vectors = append(ix.vectors, vector)
}

// removeDocumentLocked drops every vector belonging to the document,
// preserving the insertion order of the rest.
func (ix *Index) removeDocumentLocked(documentID string) {
	ids := ix.ids[:0]
	vectors := ix.vectors[:0]
	for i, id := range ix.ids {
		if parentDocument(id) == documentID {
			continue
		}
		ids = append(ids, id)
		vectors = append(vectors, ix.vectors[i])
	}
	ix.ids = ids
	ix.vectors = vectors
	if len(ix.ids) == 0 {
		ix.dim = 0
	}
}

// parentDocument inverts domain.ChunkID. The chunk index never contains an
// underscore, so the segment after the last one is always the index.
func parentDocument(chunkID string) string {
	i := strings.LastIndexByte(chunkID, '_')
	if i < 0 {
		return ""
	}
	return chunkID[:i]
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
