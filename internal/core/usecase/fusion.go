package usecase

import (
	"sort"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// fuseRRF merges ranked candidate lists with reciprocal rank fusion. Each
// list contributes 1/(k + rank) per chunk; a chunk present in several lists
// accumulates. Fused output is ordered by descending fused score, chunk
// metadata taken from the first list that produced it.
func fuseRRF(k float64, lists ...[]domain.RetrievedChunk) []domain.RetrievedChunk {
	type entry struct {
		chunk domain.RetrievedChunk
		score float64
		seen  int
	}
	byID := make(map[string]*entry)
	order := 0

	for _, list := range lists {
		for rank, chunk := range list {
			contribution := 1.0 / (k + float64(rank) + 1.0)
			if existing, ok := byID[chunk.ChunkID]; ok {
				existing.score += contribution
				continue
			}
			byID[chunk.ChunkID] = &entry{chunk: chunk, score: contribution, seen: order}
			order++
		}
	}

	entries := make([]*entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].seen < entries[j].seen
	})

	fused := make([]domain.RetrievedChunk, len(entries))
	for i, e := range entries {
		chunk := e.chunk
		chunk.Score = e.score
		fused[i] = chunk
	}
	return fused
}
