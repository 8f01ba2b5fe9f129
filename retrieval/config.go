package retrieval

import (
	"time"

	"github.com/poiesic/docgraph/chunk"
)

// Config carries every tunable of the pipeline. It is passed explicitly at
// construction time so tests can run independently configured pipelines side
// by side; nothing is read from ambient global state.
type Config struct {
	// TopK is the number of vector seed chunks fetched per query.
	TopK int

	// HopLimit bounds graph expansion depth, keeping fan-out finite on
	// densely related documentation.
	HopLimit int

	// GraphDecay is the per-hop score decay for chunks surfaced only by
	// graph expansion. A chunk at hop h scores maxSeedScore * GraphDecay^h.
	GraphDecay float32

	// MaxContextChunks caps the ranked context set handed to the router.
	MaxContextChunks int

	// MaxContextChars caps the combined text length of the context set.
	MaxContextChars int

	// TargetWords and OverlapWords configure the chunker.
	TargetWords  int
	OverlapWords int

	// EmbedTimeout bounds each embedding call. A timed-out call fails that
	// document's ingestion (or that query), never the whole batch.
	EmbedTimeout time.Duration

	// Workers is the embedding worker pool size used during ingestion.
	Workers int
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		TopK:             8,
		HopLimit:         2,
		GraphDecay:       0.5,
		MaxContextChunks: 12,
		MaxContextChars:  24000,
		TargetWords:      chunk.DefaultTargetWords,
		OverlapWords:     chunk.DefaultOverlapWords,
		EmbedTimeout:     30 * time.Second,
		Workers:          4,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TopK < 1 {
		c.TopK = def.TopK
	}
	if c.HopLimit < 1 {
		c.HopLimit = def.HopLimit
	}
	if c.GraphDecay <= 0 || c.GraphDecay > 1 {
		c.GraphDecay = def.GraphDecay
	}
	if c.MaxContextChunks < 1 {
		c.MaxContextChunks = def.MaxContextChunks
	}
	if c.MaxContextChars < 1 {
		c.MaxContextChars = def.MaxContextChars
	}
	if c.TargetWords < 1 {
		c.TargetWords = def.TargetWords
	}
	if c.OverlapWords < 0 {
		c.OverlapWords = def.OverlapWords
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = def.EmbedTimeout
	}
	if c.Workers < 1 {
		c.Workers = def.Workers
	}
	return c
}
