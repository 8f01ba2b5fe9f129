package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/docgraph/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// generation temperature kept low: answers must stay grounded in the
// retrieved context rather than improvise.
const generateTemperature = 0.2

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
// The same type serves both the local backend (Ollama-style host, dummy
// token) and the remote backend (cloud host, real API key).
type Generator struct {
	client llms.Model
	model  string
	logger *slog.Logger
}

// newGenerator constructs a Generator for one backend host.
func newGenerator(host, model, apiKey, component string) (*Generator, error) {
	if apiKey == "" {
		apiKey = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &Generator{
		client: client,
		model:  model,
		logger: slog.Default().With("component", component),
	}, nil
}

// NewLocalGenerator creates the generator for the locally hosted model.
//
// Returns ai.Generator interface to enforce abstraction.
func NewLocalGenerator(config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newGenerator(config.LocalHost, config.LocalModel, "", "local-generator")
}

// NewRemoteGenerator creates the generator for the cloud model backend.
//
// Returns ai.Generator interface to enforce abstraction.
func NewRemoteGenerator(config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !config.RemoteConfigured() {
		return nil, errors.New("remote backend not configured (missing API key)")
	}
	return newGenerator(config.RemoteHost, config.RemoteModel, config.RemoteAPIKey, "remote-generator")
}

// Generate produces a completion for the given system and user prompts.
func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(generateTemperature))
	if err != nil {
		g.logger.Error("failed to generate content", "model", g.model, "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model", "model", g.model)
		return "", errors.New("model returned no choices")
	}
	return response.Choices[0].Content, nil
}
