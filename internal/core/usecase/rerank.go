package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// rerankByOverlap reorders the top candidates by query-term overlap with
// chunk text and title, keeping the fused score as tie-break. Candidates
// past topN keep their fused order behind the reranked head.
func rerankByOverlap(query string, chunks []domain.RetrievedChunk, topN int) []domain.RetrievedChunk {
	if len(chunks) == 0 {
		return chunks
	}
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return chunks
	}
	if topN > len(chunks) {
		topN = len(chunks)
	}

	head := make([]domain.RetrievedChunk, topN)
	copy(head, chunks[:topN])

	overlaps := make(map[string]float64, topN)
	for _, chunk := range head {
		overlaps[chunk.ChunkID] = overlapRatio(queryTerms, chunk)
	}
	sort.SliceStable(head, func(i, j int) bool {
		oi, oj := overlaps[head[i].ChunkID], overlaps[head[j].ChunkID]
		if oi != oj {
			return oi > oj
		}
		return head[i].Score > head[j].Score
	})

	return append(head, chunks[topN:]...)
}

func overlapRatio(queryTerms map[string]struct{}, chunk domain.RetrievedChunk) float64 {
	chunkTerms := tokenize(chunk.Text + " " + chunk.Title)
	if len(chunkTerms) == 0 {
		return 0
	}
	matched := 0
	for term := range queryTerms {
		if _, ok := chunkTerms[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

func tokenize(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(field) < 2 {
			continue
		}
		terms[field] = struct{}{}
	}
	return terms
}
