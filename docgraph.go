// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package docgraph assembles iiRDS ingestion, hybrid retrieval, and grounded
// question answering over one embedded index.
package docgraph

import (
	"io"
	"log/slog"

	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/ai/openai"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/iirds"
	"github.com/poiesic/docgraph/reembed"
	"github.com/poiesic/docgraph/retrieval"
	"github.com/poiesic/docgraph/router"
	"github.com/poiesic/docgraph/storage/badger"
)

// App wires the storage backend, the model provider, and the component
// constructors into one handle. It is the embedding-library entry point;
// cmd/docgraph is a thin shell over it.
type App struct {
	backend  *badger.Backend
	vectors  *badger.VectorStore
	graph    *badger.GraphStore
	provider ai.Provider
	logger   *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
}

// WithAIConfig supplies the model endpoint configuration.
func WithAIConfig(config *ai.Config) AppOption {
	return func(o *appOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects a pre-built model provider, bypassing the OpenAI
// client construction. Used by tests with ai/mock.
func WithProvider(provider ai.Provider) AppOption {
	return func(o *appOptions) {
		o.provider = provider
	}
}

// NewApp opens the index at filePath and builds the model provider.
func NewApp(filePath string, opts ...AppOption) (*App, error) {
	options := &appOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	vectors := badger.NewVectorStore(backend)
	graph := badger.NewGraphStore(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &App{
		backend:  backend,
		vectors:  vectors,
		graph:    graph,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Close releases the provider and the storage backend.
func (a *App) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing model provider", "err", err)
	}

	if err := a.vectors.Close(); err != nil {
		a.logger.Error("error closing vector store", "err", err)
		return err
	}
	if err := a.graph.Close(); err != nil {
		a.logger.Error("error closing graph store", "err", err)
		return err
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// VectorStore exposes the vector index.
func (a *App) VectorStore() *badger.VectorStore {
	return a.vectors
}

// GraphStore exposes the document graph.
func (a *App) GraphStore() *badger.GraphStore {
	return a.graph
}

// Provider exposes the model provider.
func (a *App) Provider() ai.Provider {
	return a.provider
}

// NewExtractor builds the iiRDS package extractor.
func (a *App) NewExtractor() *iirds.Extractor {
	return iirds.NewExtractor()
}

// NewPipeline builds a retrieval pipeline over the app's stores.
func (a *App) NewPipeline(config retrieval.Config, opts ...retrieval.Option) (*retrieval.Pipeline, error) {
	return retrieval.NewPipeline(a.vectors, a.graph, a.provider.Embedder(), config, opts...)
}

// NewRouter builds the model router over the app's generators.
func (a *App) NewRouter(opts ...router.Option) *router.Router {
	return router.NewRouter(
		a.provider.Generator(core.ModeLocal),
		a.provider.Generator(core.ModeRemote),
		opts...,
	)
}

// NewReembedder builds a re-embedding pass over the vector index.
func (a *App) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(a.vectors, a.provider.Embedder(), config, progress)
}
