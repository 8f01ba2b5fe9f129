package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docgraph/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder against an OpenAI-compatible embedding
// API. Ingestion hands it every chunk of a content unit at once and aligns
// the returned vectors with the chunks by index, so requests are split into
// bounded batches and the response count is verified per batch.
type Embedder struct {
	embedder embeddings.Embedder
	maxBatch int
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	maxBatch := config.EmbedBatchSize
	if maxBatch <= 0 {
		maxBatch = ai.DefaultEmbedBatchSize
	}

	return &Embedder{
		embedder: embedder,
		maxBatch: maxBatch,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates one embedding per input text, preserving order.
// Inputs larger than the configured batch size are sent in several requests.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.logger.Debug("generating embeddings", "count", len(texts), "batch", e.maxBatch)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.maxBatch {
		if err := ctx.Err(); err != nil {
			return nil, ai.EmbeddingError(err)
		}
		end := min(start+e.maxBatch, len(texts))
		batch, err := e.embedder.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			e.logger.Error("embedding batch failed", "start", start, "count", end-start, "err", err)
			return nil, ai.EmbeddingError(err)
		}
		if len(batch) != end-start {
			e.logger.Error("embedding count mismatch", "want", end-start, "got", len(batch))
			return nil, ai.EmbeddingError(fmt.Errorf("service returned %d embeddings for %d texts", len(batch), end-start))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
