package router

import (
	"strings"

	"github.com/poiesic/docgraph/core"
)

// systemPrompt grounds the model in the retrieved documentation and forbids
// answers from outside it.
const systemPrompt = `You are a technical documentation assistant. Answer the question using only the documentation fragments provided below. Each fragment is tagged with its source as [document | unit]. If the fragments do not contain the answer, say so explicitly instead of guessing. Cite the source tags of the fragments you used.`

// BuildPrompt renders the retrieved context followed by the question. Every
// fragment carries a [document | unit] tag so answers stay traceable to
// their source. Fragments appear in rank order.
func BuildPrompt(question string, results []*core.RetrievalResult) string {
	var b strings.Builder

	b.WriteString("Documentation fragments:\n\n")
	for _, r := range results {
		b.WriteString("[")
		b.WriteString(r.Chunk.DocumentID)
		b.WriteString(" | ")
		b.WriteString(r.Chunk.UnitID)
		b.WriteString("]\n")
		b.WriteString(r.Chunk.Text)
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)

	return b.String()
}
