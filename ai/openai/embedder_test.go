package openai

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docgraph/ai"
)

// fakeBatchEmbedder records the batches it receives and returns one vector
// per text, encoding the text length so order is observable.
type fakeBatchEmbedder struct {
	batches   [][]string
	embedFunc func(texts []string) ([][]float32, error)
}

func (f *fakeBatchEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.embedFunc != nil {
		return f.embedFunc(texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func (f *fakeBatchEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func testEmbedder(fake *fakeBatchEmbedder, maxBatch int) *Embedder {
	return &Embedder{
		embedder: fake,
		maxBatch: maxBatch,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestEmbedTextsSplitsBatches(t *testing.T) {
	fake := &fakeBatchEmbedder{}
	e := testEmbedder(fake, 2)

	vectors, err := e.EmbedTexts(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	require.Len(t, fake.batches, 3)
	assert.Equal(t, []string{"a", "bb"}, fake.batches[0])
	assert.Equal(t, []string{"ccc", "dddd"}, fake.batches[1])
	assert.Equal(t, []string{"eeeee"}, fake.batches[2])

	require.Len(t, vectors, 5)
	for i, want := range []float32{1, 2, 3, 4, 5} {
		assert.Equal(t, want, vectors[i][0])
	}
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	fake := &fakeBatchEmbedder{
		embedFunc: func(texts []string) ([][]float32, error) {
			return make([][]float32, len(texts)-1), nil
		},
	}
	e := testEmbedder(fake, 8)

	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	fake := &fakeBatchEmbedder{}
	e := testEmbedder(fake, 8)

	vectors, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, fake.batches)
}

func TestEmbedTextsContextCanceled(t *testing.T) {
	fake := &fakeBatchEmbedder{}
	e := testEmbedder(fake, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EmbedTexts(ctx, []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
	assert.Empty(t, fake.batches)
}

func TestEmbedTextSingle(t *testing.T) {
	fake := &fakeBatchEmbedder{}
	e := testEmbedder(fake, 8)

	vector, err := e.EmbedText(context.Background(), "pump")
	require.NoError(t, err)
	assert.Equal(t, []float32{4}, vector)
}
