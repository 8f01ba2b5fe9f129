package retrieval

import (
	"errors"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/storage"
)

var (
	ErrVectorStoreRequired = errors.New("vector store is required")
	ErrGraphStoreRequired  = errors.New("graph store is required")
	ErrEmbedderRequired    = errors.New("embedder is required")
)

// Pipeline orchestrates document ingestion and hybrid retrieval.
// It owns the embedding worker pool and the per-document lock registry;
// all other state lives in the two stores.
type Pipeline struct {
	vectors  storage.VectorStore
	graph    storage.GraphStore
	embedder ai.Embedder
	config   Config
	pool     *ants.Pool
	locks    *documentLocks
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a retrieval pipeline on top of the given stores and
// embedder. Zero-valued Config fields fall back to DefaultConfig.
func NewPipeline(
	vectors storage.VectorStore,
	graph storage.GraphStore,
	embedder ai.Embedder,
	config Config,
	opts ...Option,
) (*Pipeline, error) {
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if graph == nil {
		return nil, ErrGraphStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	config = config.withDefaults()

	pool, err := ants.NewPool(config.Workers)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		vectors:  vectors,
		graph:    graph,
		embedder: embedder,
		config:   config,
		pool:     pool,
		locks:    newDocumentLocks(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.logger = p.logger.With("component", "retrieval")

	return p, nil
}

// Configuration returns the effective pipeline configuration.
func (p *Pipeline) Configuration() Config {
	return p.config
}

// Release releases the embedding worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
