package chunking

import (
	"fmt"
	"iter"
	"unicode"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// Splitter cuts document text into overlapping spans of at most chunkSize
// runes. Cut points prefer the coarsest natural boundary available inside
// the window: paragraph break, then sentence end or newline, then
// whitespace, then a hard cut at the size limit. Each chunk after the first
// starts overlap runes before the previous chunk's end.
type Splitter struct {
	chunkSize int
	overlap   int
}

func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, domain.WrapError(domain.ErrConfiguration, "new splitter",
			fmt.Errorf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, domain.WrapError(domain.ErrConfiguration, "new splitter",
			fmt.Errorf("overlap must satisfy 0 <= overlap < chunk size, got overlap=%d size=%d", overlap, chunkSize))
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunks yields spans lazily. The sequence is restartable: every iteration
// walks the text from the beginning. Offsets are rune offsets into text.
// Empty text yields nothing; text shorter than the chunk size yields one
// span covering the whole text.
func (s *Splitter) Chunks(text string) iter.Seq[domain.ChunkSpan] {
	return func(yield func(domain.ChunkSpan) bool) {
		runes := []rune(text)
		n := len(runes)
		if n == 0 {
			return
		}

		start, index := 0, 0
		for {
			limit := start + s.chunkSize
			if limit >= n {
				yield(domain.ChunkSpan{
					Index: index,
					Start: start,
					End:   n,
					Text:  string(runes[start:n]),
				})
				return
			}

			end := s.cutPoint(runes, start, limit)
			if !yield(domain.ChunkSpan{
				Index: index,
				Start: start,
				End:   end,
				Text:  string(runes[start:end]),
			}) {
				return
			}

			index++
			start = end - s.overlap
			if start < 0 {
				start = 0
			}
		}
	}
}

// Split collects Chunks into a slice.
func (s *Splitter) Split(text string) []domain.ChunkSpan {
	var out []domain.ChunkSpan
	for span := range s.Chunks(text) {
		out = append(out, span)
	}
	return out
}

// cutPoint returns the end of the chunk starting at start, with
// start < end <= limit. A boundary is only used when it keeps forward
// progress past the overlap region, otherwise the next finer class is
// tried; the fallback is a hard cut at limit.
func (s *Splitter) cutPoint(runes []rune, start, limit int) int {
	minEnd := start + s.overlap + 1

	if cut := lastParagraphBreak(runes, minEnd, limit); cut >= minEnd {
		return cut
	}
	if cut := lastSentenceEnd(runes, minEnd, limit); cut >= minEnd {
		return cut
	}
	if cut := lastWhitespace(runes, minEnd, limit); cut >= minEnd {
		return cut
	}
	return limit
}

// lastParagraphBreak returns the position just after the last "\n\n" whose
// cut point lies in [minEnd, limit], or 0.
func lastParagraphBreak(runes []rune, minEnd, limit int) int {
	for i := limit - 2; i >= minEnd-2 && i >= 0; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}
	return 0
}

// lastSentenceEnd returns the position just after the last sentence
// terminator (or single newline) whose cut point lies in [minEnd, limit],
// or 0. A terminator only counts when followed by whitespace.
func lastSentenceEnd(runes []rune, minEnd, limit int) int {
	for i := limit - 1; i >= minEnd-1 && i >= 0; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
		if (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') &&
			i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	return 0
}

// lastWhitespace returns the position just after the last whitespace rune
// whose cut point lies in [minEnd, limit], or 0.
func lastWhitespace(runes []rune, minEnd, limit int) int {
	for i := limit - 1; i >= minEnd-1 && i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return 0
}
