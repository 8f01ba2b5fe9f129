package reembed

import (
	"context"

	"github.com/poiesic/docgraph/core"
)

// Store is the slice of the vector index the re-embedding pass needs.
// *badger.VectorStore satisfies it.
type Store interface {
	// ForEachChunk visits every stored chunk record.
	ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error

	// Upsert rewrites a chunk with its new vector.
	Upsert(ctx context.Context, chunk *core.Chunk, vector []float32) error

	// ResetDimension clears the pinned index dimension so the new model's
	// vectors are accepted even when their length changed.
	ResetDimension(ctx context.Context) error
}
