package chunk

import (
	"unicode"

	"github.com/poiesic/docgraph/core"
)

// Defaults mirror the word-window sizing the system was tuned with.
const (
	DefaultTargetWords  = 250
	DefaultOverlapWords = 40
)

// Span is one chunk boundary within the source text.
// Text is always the exact byte range text[Start:End] of the input, so
// concatenating spans while skipping each span's Overlap prefix reconstructs
// the input losslessly.
type Span struct {
	Start   int // byte offset of the span start
	End     int // byte offset one past the span end
	Overlap int // bytes shared with the previous span
	Text    string
}

// Split cuts text into overlapping word-window spans.
//
// Boundaries fall on word starts: span i begins at the start of word i*step
// (the first span begins at offset 0) and ends at the start of word
// i*step+target (the last span ends at len(text)), where
// step = target - overlap, clamped to at least 1. Because boundaries are
// byte offsets into the original text, whitespace is never normalized away
// and coverage is exact.
//
// Split is deterministic: the same text and configuration always produce the
// same spans. Text shorter than the target window yields exactly one span.
// Empty text yields no spans.
func Split(text string, targetWords, overlapWords int) []Span {
	if text == "" {
		return nil
	}
	if targetWords < 1 {
		targetWords = DefaultTargetWords
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	if overlapWords >= targetWords {
		overlapWords = targetWords - 1
	}
	step := targetWords - overlapWords

	starts := wordStarts(text)
	if len(starts) <= targetWords {
		return []Span{{Start: 0, End: len(text), Text: text}}
	}

	var spans []Span
	prevEnd := 0
	for w := 0; w < len(starts); w += step {
		start := starts[w]
		if w == 0 {
			start = 0
		}
		end := len(text)
		if w+targetWords < len(starts) {
			end = starts[w+targetWords]
		}

		overlap := 0
		if len(spans) > 0 && prevEnd > start {
			overlap = prevEnd - start
		}
		spans = append(spans, Span{
			Start:   start,
			End:     end,
			Overlap: overlap,
			Text:    text[start:end],
		})
		prevEnd = end

		if end == len(text) {
			break
		}
	}
	return spans
}

// Unit chunks a content unit, stamping each chunk with provenance metadata
// used for filtered vector search.
func Unit(unit *core.ContentUnit, targetWords, overlapWords int) []*core.Chunk {
	spans := Split(unit.Text, targetWords, overlapWords)
	chunks := make([]*core.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = &core.Chunk{
			Id:         core.ChunkID(unit.DocumentID, unit.ID, span.Start, span.End, span.Text),
			UnitID:     unit.ID,
			DocumentID: unit.DocumentID,
			Text:       span.Text,
			Index:      i,
			Start:      span.Start,
			End:        span.End,
			Overlap:    span.Overlap,
			Metadata:   chunkMetadata(unit),
		}
	}
	return chunks
}

// Reassemble reconstructs the source text from an ordered sequence of spans
// by skipping each span's overlap prefix.
func Reassemble(spans []Span) string {
	var out []byte
	for _, span := range spans {
		out = append(out, span.Text[span.Overlap:]...)
	}
	return string(out)
}

func chunkMetadata(unit *core.ContentUnit) map[string]string {
	meta := map[string]string{
		"document_id": unit.DocumentID,
		"unit_id":     unit.ID,
	}
	if unit.Title != "" {
		meta["title"] = unit.Title
	}
	if unit.Type != "" {
		meta["type"] = unit.Type
	}
	if unit.Topic != "" {
		meta["topic"] = unit.Topic
	}
	if unit.Language != "" {
		meta["language"] = unit.Language
	}
	return meta
}

// wordStarts returns the byte offset of every word start in text, where a
// word is a maximal run of non-space bytes.
func wordStarts(text string) []int {
	var starts []int
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			starts = append(starts, i)
			inWord = true
		}
	}
	return starts
}
