package mock

import (
	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/core"
)

// MockProvider aggregates mock AI services for tests.
type MockProvider struct {
	embedder *MockEmbedder
	local    *MockGenerator
	remote   *MockGenerator
}

// NewMockProvider creates a provider backed by deterministic mocks.
// Returns the ai.Provider interface; use the Get* accessors for assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		local:    NewMockGenerator("local answer"),
		remote:   NewMockGenerator("remote answer"),
	}
}

// NewMockProviderWith creates a provider from explicit doubles. Pass nil for
// a generator to simulate an unconfigured mode.
func NewMockProviderWith(embedder *MockEmbedder, local, remote *MockGenerator) *MockProvider {
	return &MockProvider{embedder: embedder, local: local, remote: remote}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the mock backend for the given mode, or nil when that
// mode was constructed unconfigured.
func (p *MockProvider) Generator(mode core.Mode) ai.Generator {
	switch mode {
	case core.ModeLocal:
		if p.local == nil {
			return nil
		}
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

// Close is a no-op for mocks.
func (p *MockProvider) Close() error { return nil }

// GetMockEmbedder returns the concrete embedder for assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder { return p.embedder }

// GetMockLocal returns the concrete local generator for assertions.
func (p *MockProvider) GetMockLocal() *MockGenerator { return p.local }

// GetMockRemote returns the concrete remote generator for assertions.
func (p *MockProvider) GetMockRemote() *MockGenerator { return p.remote }
