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

// Package service exposes ingestion and querying over HTTP.
package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/poiesic/docgraph/iirds"
	"github.com/poiesic/docgraph/retrieval"
	"github.com/poiesic/docgraph/router"
)

// Server is the HTTP front of the system: package upload on one side,
// grounded question answering on the other.
type Server struct {
	echo      *echo.Echo
	extractor *iirds.Extractor
	pipeline  *retrieval.Pipeline
	router    *router.Router
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer wires the HTTP routes over the given components.
func NewServer(extractor *iirds.Extractor, pipeline *retrieval.Pipeline, rt *router.Router, opts ...Option) *Server {
	s := &Server{
		extractor: extractor,
		pipeline:  pipeline,
		router:    rt,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "service")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestID())
	e.Use(requestLogger(s.logger))

	e.GET("/healthz", s.handleHealth)
	e.POST("/query", s.handleQuery)
	e.POST("/ingest", s.handleIngest)

	s.echo = e
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
