package storage

import (
	"context"

	"github.com/poiesic/docgraph/core"
)

// ChunkLookup resolves chunk identifiers to stored chunk records. Both store
// adapters stay independent behind this shared capability so similarity
// search and relation traversal can scale separately.
type ChunkLookup interface {
	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)
}

// VectorMatch is one similarity-search hit.
type VectorMatch struct {
	ChunkID core.ID
	Score   float32
}

// VectorStore persists (vector, chunk) pairs and supports filtered
// nearest-neighbor search. Implementations must be thread-safe.
type VectorStore interface {
	ChunkLookup

	// Upsert stores a chunk with its embedding vector. The first upsert pins
	// the index dimension; later vectors of a different length are rejected
	// with ErrDimensionMismatch.
	Upsert(ctx context.Context, chunk *core.Chunk, vector []float32) error

	// DeleteByDocument removes every vector and chunk record belonging to
	// the given document. Used before re-ingestion to enforce the no-orphan
	// invariant.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Search returns at most k chunks ordered by descending cosine
	// similarity, ties broken by ascending chunk ID. Filters are conjunctive
	// constraints on chunk metadata evaluated before ranking.
	Search(ctx context.Context, vector []float32, k int, filters []Filter) ([]VectorMatch, error)

	// Dimension returns the pinned index dimension, or 0 when the index is
	// still empty.
	Dimension(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// GraphStore persists the document graph and supports bounded traversal.
// Implementations must be thread-safe.
type GraphStore interface {
	// UpsertDocument stores the document's unit nodes, relation edges, and
	// chunk membership.
	UpsertDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) error

	// DeleteDocument removes the document's nodes, edges, and chunk
	// membership.
	DeleteDocument(ctx context.Context, documentID string) error

	// Expand returns every chunk belonging to a unit reachable from the seed
	// chunks' units via one to hopLimit relation hops, mapped to its minimum
	// hop distance. Edges are traversed undirected unless the relation was
	// declared directional. A seed chunk may itself appear in the expansion
	// when another seed's unit links to its unit; callers use that to mark
	// chunks found both ways.
	Expand(ctx context.Context, seeds []core.ID, hopLimit int) (map[core.ID]int, error)

	// Close releases resources held by the store.
	Close() error
}
