package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for chunks.
// It is generated deterministically from chunk provenance and content so that
// re-ingesting an unchanged document yields identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text using BLAKE2b hashing.
// Identical input always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID derives the identifier for a chunk from its owning document, unit,
// byte span, and text. The span participates so that shifted boundaries
// produce distinct IDs even for repeated text.
func ChunkID(documentID, unitID string, start, end int, text string) ID {
	return IDFromContent(documentID + "|" + unitID + "|" +
		strconv.Itoa(start) + "|" + strconv.Itoa(end) + "|" + text)
}

// Document is one ingested iiRDS package: an ordered list of content units
// plus the semantic relations declared between them. Documents are immutable
// after ingestion; re-ingestion replaces the whole document by identifier.
type Document struct {
	ID         string
	Title      string
	Units      []ContentUnit
	Relations  []Relation
	IngestedAt time.Time
}

// Unit returns the content unit with the given identifier, or nil.
func (d *Document) Unit(id string) *ContentUnit {
	for i := range d.Units {
		if d.Units[i].ID == id {
			return &d.Units[i]
		}
	}
	return nil
}

// ContentUnit is a single information unit (iiRDS topic or document part)
// owned exclusively by its Document.
type ContentUnit struct {
	ID         string
	DocumentID string
	Title      string
	Text       string
	Type       string // structural kind, e.g. "topic" or "document"
	Topic      string // topic classification, e.g. "task", "reference"
	Language   string
}

// Relation is a typed edge between two content units.
// Relations are persisted only in the graph store.
type Relation struct {
	SourceID string
	TargetID string
	Type     string
	// Directed relations are traversed source→target only during
	// graph expansion; undirected relations are traversed both ways.
	Directed bool
}

// Chunk is the atomic unit of retrieval: a bounded span of a content unit's
// text. Chunks are never mutated; they are deleted only when their owning
// document is re-ingested or removed.
type Chunk struct {
	Id         ID
	UnitID     string
	DocumentID string
	Text       string
	Index      int // position of this chunk within its unit
	Start      int // byte offset of the span within the unit text
	End        int // byte offset one past the span end
	Overlap    int // bytes shared with the previous chunk of the same unit
	Metadata   map[string]string
}

// Provenance records which retrieval mechanism surfaced a chunk.
type Provenance int

const (
	// ProvenanceVector marks a chunk found by vector similarity search.
	ProvenanceVector Provenance = iota + 1
	// ProvenanceGraph marks a chunk found only by graph expansion.
	ProvenanceGraph
	// ProvenanceBoth marks a chunk found by both mechanisms.
	ProvenanceBoth
)

// String returns the wire representation of the provenance.
func (p Provenance) String() string {
	switch p {
	case ProvenanceVector:
		return "vector"
	case ProvenanceGraph:
		return "graph"
	case ProvenanceBoth:
		return "both"
	default:
		return "unknown"
	}
}

// RetrievalResult is one ranked context fragment produced by hybrid retrieval.
type RetrievalResult struct {
	Chunk      *Chunk
	Score      float32
	Hops       int // relation hops from the nearest vector seed; 0 for seeds
	Provenance Provenance
}

// Mode selects which language-model backend answers a query. It is an
// explicit user choice, never a fallback chain.
type Mode int

const (
	// ModeLocal routes to the locally hosted model.
	ModeLocal Mode = iota + 1
	// ModeRemote routes to the cloud provider.
	ModeRemote
)

// String returns the wire representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ParseMode parses the wire representation of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "local":
		return ModeLocal, nil
	case "remote":
		return ModeRemote, nil
	default:
		return 0, ErrInvalidMode
	}
}

// Query is a single question against the ingested documentation.
// Queries are transient and never persisted.
type Query struct {
	Question string
	Filters  map[string]string
	Mode     Mode
	Debug    bool
}
