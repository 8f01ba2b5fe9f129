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


package openai

import (
	"log/slog"

	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/core"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// It manages the embedder and the per-mode generator instances.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	local    *Generator
	remote   *Generator // nil when the remote backend is unconfigured
	logger   *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use. The remote generator is
// only constructed when the config carries an API key; an unconfigured mode
// stays nil and is surfaced as a typed routing error at query time, never a
// silent fallback.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	local, err := newGenerator(config.LocalHost, config.LocalModel, "", "local-generator")
	if err != nil {
		return nil, err
	}

	var remote *Generator
	if config.RemoteConfigured() {
		remote, err = newGenerator(config.RemoteHost, config.RemoteModel,
			config.RemoteAPIKey, "remote-generator")
		if err != nil {
			return nil, err
		}
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		local:    local,
		remote:   remote,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the model backend for the given mode, or nil if that
// mode is not configured.
func (p *Provider) Generator(mode core.Mode) ai.Generator {
	switch mode {
	case core.ModeLocal:
		return p.local
	case core.ModeRemote:
		if p.remote == nil {
			return nil
		}
		return p.remote
	default:
		return nil
	}
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
