package usecase

import (
	"fmt"
	"strings"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

const qaInstruction = `You are a helpful assistant that answers questions using only the provided documents. If the documents do not contain the answer, say that the information is not available in the provided documents. Be concise and cite which document supports each claim.`

const summaryInstruction = `You are a helpful assistant that summarizes documents. Write a concise summary covering the key points, obligations, and conclusions of the text below.`

// contextBlock renders one retrieved chunk the way it appears in the QA
// prompt. The block length, not the bare chunk text, counts against the
// prompt budget.
func contextBlock(position int, chunk domain.RetrievedChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Document %d: %s ---\n", position, chunk.Title)
	if chunk.Citation != "" {
		fmt.Fprintf(&b, "Citation: %s\n", chunk.Citation)
	}
	b.WriteString("Content:\n")
	b.WriteString(chunk.Text)
	b.WriteString("\n\n")
	return b.String()
}

func buildQAPrompt(question string, blocks []string) string {
	var b strings.Builder
	b.WriteString(qaInstruction)
	b.WriteString("\n\nContext documents:\n\n")
	for _, block := range blocks {
		b.WriteString(block)
	}
	fmt.Fprintf(&b, "Question: %s\n\nAnswer:", question)
	return b.String()
}

func buildSummaryPrompt(text string) string {
	var b strings.Builder
	b.WriteString(summaryInstruction)
	b.WriteString("\n\nText:\n")
	b.WriteString(text)
	b.WriteString("\n\nSummary:")
	return b.String()
}
