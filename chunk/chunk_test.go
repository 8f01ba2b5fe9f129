package chunk

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/poiesic/docgraph/core"
)

func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "word%d", i)
	}
	return b.String()
}

func TestSplitEmptyText(t *testing.T) {
	if spans := Split("", 50, 10); spans != nil {
		t.Fatalf("Expected no spans for empty text, got %d", len(spans))
	}
}

func TestSplitShortText(t *testing.T) {
	text := "just a few words"
	spans := Split(text, 50, 10)
	if len(spans) != 1 {
		t.Fatalf("Expected exactly 1 span, got %d", len(spans))
	}
	if spans[0].Start != 0 || spans[0].End != len(text) {
		t.Fatalf("Expected span [0,%d), got [%d,%d)", len(text), spans[0].Start, spans[0].End)
	}
	if spans[0].Text != text {
		t.Fatalf("Expected span text to equal input, got %q", spans[0].Text)
	}
	if spans[0].Overlap != 0 {
		t.Fatalf("Expected no overlap on single span, got %d", spans[0].Overlap)
	}
}

func TestSplitCoverage(t *testing.T) {
	text := "  " + words(500) + "\n\ttrailing   whitespace  "
	spans := Split(text, 50, 10)

	if len(spans) < 2 {
		t.Fatalf("Expected multiple spans, got %d", len(spans))
	}
	if spans[0].Start != 0 {
		t.Fatalf("First span must start at 0, got %d", spans[0].Start)
	}
	if spans[len(spans)-1].End != len(text) {
		t.Fatalf("Last span must end at %d, got %d", len(text), spans[len(spans)-1].End)
	}

	// Consecutive spans must tile the text: each starts inside the
	// previous one by exactly its recorded overlap.
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if cur.Start > prev.End {
			t.Fatalf("Gap between span %d and %d: %d > %d", i-1, i, cur.Start, prev.End)
		}
		if got := prev.End - cur.Start; got != cur.Overlap {
			t.Fatalf("Span %d overlap mismatch: recorded %d, actual %d", i, cur.Overlap, got)
		}
		if cur.Text != text[cur.Start:cur.End] {
			t.Fatalf("Span %d text does not match its byte range", i)
		}
	}

	if got := Reassemble(spans); got != text {
		t.Fatalf("Reassembled text differs from input:\n%q\n%q", got, text)
	}
}

func TestSplitDeterminism(t *testing.T) {
	text := words(300)
	first := Split(text, 40, 8)
	second := Split(text, 40, 8)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Split is not deterministic for identical input")
	}
}

func TestSplitOverlapClamped(t *testing.T) {
	// Overlap >= target must still make forward progress.
	text := words(30)
	spans := Split(text, 5, 9)
	if len(spans) == 0 {
		t.Fatal("Expected spans")
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start <= spans[i-1].Start {
			t.Fatalf("Span %d does not advance: %d <= %d", i, spans[i].Start, spans[i-1].Start)
		}
	}
	if got := Reassemble(spans); got != text {
		t.Fatal("Reassembled text differs from input")
	}
}

func TestUnitChunks(t *testing.T) {
	unit := &core.ContentUnit{
		ID:         "unit-1",
		DocumentID: "doc-1",
		Title:      "Safety notes",
		Text:       words(120),
		Type:       "topic",
		Topic:      "task",
		Language:   "en",
	}

	chunks := Unit(unit, 50, 10)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	seen := make(map[core.ID]bool)
	for i, ch := range chunks {
		if ch.Index != i {
			t.Fatalf("Chunk %d has index %d", i, ch.Index)
		}
		if ch.UnitID != "unit-1" || ch.DocumentID != "doc-1" {
			t.Fatalf("Chunk %d has wrong provenance: %s/%s", i, ch.DocumentID, ch.UnitID)
		}
		if ch.Id == 0 {
			t.Fatalf("Chunk %d has zero ID", i)
		}
		if seen[ch.Id] {
			t.Fatalf("Duplicate chunk ID %d", ch.Id)
		}
		seen[ch.Id] = true

		if ch.Metadata["document_id"] != "doc-1" ||
			ch.Metadata["unit_id"] != "unit-1" ||
			ch.Metadata["title"] != "Safety notes" ||
			ch.Metadata["type"] != "topic" ||
			ch.Metadata["topic"] != "task" ||
			ch.Metadata["language"] != "en" {
			t.Fatalf("Chunk %d metadata incomplete: %v", i, ch.Metadata)
		}
	}

	// IDs are content derived and therefore stable across runs.
	again := Unit(unit, 50, 10)
	for i := range chunks {
		if chunks[i].Id != again[i].Id {
			t.Fatalf("Chunk %d ID not stable: %d vs %d", i, chunks[i].Id, again[i].Id)
		}
	}
}

func TestUnitEmptyText(t *testing.T) {
	unit := &core.ContentUnit{ID: "unit-1", DocumentID: "doc-1"}
	if chunks := Unit(unit, 50, 10); len(chunks) != 0 {
		t.Fatalf("Expected no chunks for empty unit, got %d", len(chunks))
	}
}
