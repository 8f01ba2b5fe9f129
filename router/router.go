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

// Package router dispatches answer generation to the model backend the
// query names. Mode selection is explicit per query; a failing backend is
// reported as such and never silently substituted.
package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/core"
)

const defaultGenerateTimeout = 60 * time.Second

// Answer is a generated response plus the material it was grounded in,
// kept around so callers can assemble debug output.
type Answer struct {
	Text    string
	Prompt  string
	Results []*core.RetrievalResult
}

// Router selects a generator per query mode. Either backend may be nil when
// it was never configured; asking for an unconfigured mode is an error.
type Router struct {
	local   ai.Generator
	remote  ai.Generator
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithTimeout bounds each generation call. Default is 60 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Router) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a router over the configured generators.
func NewRouter(local, remote ai.Generator, opts ...Option) *Router {
	r := &Router{
		local:   local,
		remote:  remote,
		timeout: defaultGenerateTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "router")
	return r
}

// Answer builds the grounded prompt and generates a response with the
// backend the query's mode names.
func (r *Router) Answer(ctx context.Context, query *core.Query, results []*core.RetrievalResult) (*Answer, error) {
	generator, err := r.generator(query.Mode)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(query.Question, results)

	genCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	text, err := generator.Generate(genCtx, systemPrompt, prompt)
	if err != nil {
		return nil, &BackendError{
			Mode:      query.Mode,
			Reason:    "generation failed",
			Retryable: true,
			Err:       err,
		}
	}

	r.logger.Debug("answer generated",
		"mode", query.Mode.String(),
		"context_chunks", len(results),
		"duration", time.Since(start))

	return &Answer{Text: text, Prompt: prompt, Results: results}, nil
}

func (r *Router) generator(mode core.Mode) (ai.Generator, error) {
	switch mode {
	case core.ModeLocal:
		if r.local == nil {
			return nil, &BackendError{Mode: mode, Reason: "no local backend configured"}
		}
		return r.local, nil
	case core.ModeRemote:
		if r.remote == nil {
			return nil, &BackendError{Mode: mode, Reason: "no remote backend configured"}
		}
		return r.remote, nil
	default:
		return nil, core.ErrInvalidMode
	}
}
