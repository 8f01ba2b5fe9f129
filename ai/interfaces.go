package ai

import (
	"context"

	"github.com/poiesic/docgraph/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch, in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text from a prompt. Local and remote model backends
// both implement this; the router selects between them per query.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate produces a completion for the given system and user prompts.
	Generate(ctx context.Context, system, user string) (string, error)
}

// Provider aggregates the external AI capabilities for convenient
// initialization and lifecycle management: one embedder plus one generator
// per routing mode.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the model backend for the given mode, or nil if that
	// mode is not configured.
	Generator(mode core.Mode) Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
