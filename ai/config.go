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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server.
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "nomic-embed-text", "text-embedding-3-small"
	EmbeddingModel string

	// LocalHost is the base URL of the locally hosted model backend.
	LocalHost string

	// LocalModel is the model identifier served by the local backend.
	// Example: "llama3.2"
	LocalModel string

	// RemoteHost is the base URL of the cloud model backend.
	// Example: "https://openrouter.ai/api/v1"
	RemoteHost string

	// RemoteModel is the model identifier served by the remote backend.
	RemoteModel string

	// RemoteAPIKey authenticates against the remote backend. When empty the
	// remote mode is left unconfigured and queries requesting it fail with a
	// typed error rather than falling back to local.
	RemoteAPIKey string

	// EmbedBatchSize caps how many texts are sent to the embedding service
	// per request. Zero or negative selects DefaultEmbedBatchSize.
	EmbedBatchSize int
}

// DefaultEmbedBatchSize bounds embedding requests so ingesting a large
// package does not exceed the request limits of common embedding services.
const DefaultEmbedBatchSize = 64

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbedding sets the embedding service host and model.
func WithEmbedding(host, model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.EmbeddingModel = model
	}
}

// WithLocal sets the local model backend host and model.
func WithLocal(host, model string) ConfigOption {
	return func(c *Config) {
		c.LocalHost = host
		c.LocalModel = model
	}
}

// WithRemote sets the remote model backend host, model, and API key.
func WithRemote(host, model, apiKey string) ConfigOption {
	return func(c *Config) {
		c.RemoteHost = host
		c.RemoteModel = model
		c.RemoteAPIKey = apiKey
	}
}

// WithEmbedBatchSize caps the number of texts per embedding request.
func WithEmbedBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.EmbedBatchSize = size
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. The remote backend is unconfigured by default.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "nomic-embed-text",
		LocalHost:      "http://localhost:11434/v1",
		LocalModel:     "llama3.2",
		RemoteHost:     "https://openrouter.ai/api/v1",
		RemoteModel:    "qwen/qwen3-30b-a3b",
		EmbedBatchSize: DefaultEmbedBatchSize,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures hosts carry the /v1 suffix required by most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, OpenRouter).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.LocalHost = normalizeHost(c.LocalHost)
	c.RemoteHost = normalizeHost(c.RemoteHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.LocalHost == "" {
		return errors.New("ai config: LocalHost is required")
	}
	if c.LocalModel == "" {
		return errors.New("ai config: LocalModel is required")
	}
	if c.RemoteAPIKey != "" {
		if c.RemoteHost == "" {
			return errors.New("ai config: RemoteHost is required when RemoteAPIKey is set")
		}
		if c.RemoteModel == "" {
			return errors.New("ai config: RemoteModel is required when RemoteAPIKey is set")
		}
	}
	return nil
}

// RemoteConfigured reports whether the remote backend can be constructed.
func (c *Config) RemoteConfigured() bool {
	return c.RemoteAPIKey != "" && c.RemoteHost != "" && c.RemoteModel != ""
}
