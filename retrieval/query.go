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

package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/storage"
)

// Retrieve runs hybrid retrieval for one query: embed the question, fetch
// the top-K most similar chunks, expand their units over the relation graph,
// then merge both result sets into a single ranked context.
//
// Vector hits keep their cosine similarity. Chunks surfaced only by graph
// expansion score maxSeedScore * GraphDecay^hops. A chunk found both ways
// keeps the higher of the two scores and is marked accordingly. Metadata
// filters constrain the whole result set, expanded chunks included.
//
// Retrieve never takes locks; a query racing an ingestion sees either the
// old or the new version of a document.
func (p *Pipeline) Retrieve(ctx context.Context, query *core.Query, monitor Monitor) ([]*core.RetrievalResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	monitor.Start(query.Question)

	embedCtx, cancel := context.WithTimeout(ctx, p.config.EmbedTimeout)
	defer cancel()

	queryVector, err := p.embedder.EmbedText(embedCtx, query.Question)
	if err != nil {
		return nil, &EmbedError{Err: err}
	}

	filters := storage.ParseFilters(query.Filters)

	seeds, err := p.vectors.Search(ctx, queryVector, p.config.TopK, filters)
	if err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(seeds)

	merged := make(map[core.ID]*core.RetrievalResult, len(seeds))
	seedIDs := make([]core.ID, len(seeds))
	var maxSeedScore float32
	for i, match := range seeds {
		seedIDs[i] = match.ChunkID
		if match.Score > maxSeedScore {
			maxSeedScore = match.Score
		}
		merged[match.ChunkID] = &core.RetrievalResult{
			Score:      match.Score,
			Provenance: core.ProvenanceVector,
		}
	}

	if len(seeds) > 0 {
		expanded, err := p.graph.Expand(ctx, seedIDs, p.config.HopLimit)
		if err != nil {
			return nil, err
		}
		monitor.AfterGraphExpansion(expanded)

		for id, hops := range expanded {
			score := maxSeedScore * decayPow(p.config.GraphDecay, hops)
			if existing, ok := merged[id]; ok {
				existing.Provenance = core.ProvenanceBoth
				if score > existing.Score {
					existing.Score = score
				}
				continue
			}
			merged[id] = &core.RetrievalResult{
				Score:      score,
				Hops:       hops,
				Provenance: core.ProvenanceGraph,
			}
		}
	}

	results, err := p.resolveChunks(ctx, merged, filters)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		switch r.Provenance {
		case core.ProvenanceVector:
			monitor.VectorHit(r)
		case core.ProvenanceGraph:
			monitor.GraphHit(r)
		case core.ProvenanceBoth:
			monitor.HybridHit(r)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Id < results[j].Chunk.Id
	})

	results = p.truncate(results)

	monitor.Finish(results)

	return results, nil
}

// resolveChunks attaches stored chunk records to the merged hits and drops
// expanded chunks the query filters exclude. Seeds passed the same filters
// inside the vector search already.
func (p *Pipeline) resolveChunks(ctx context.Context, merged map[core.ID]*core.RetrievalResult, filters []storage.Filter) ([]*core.RetrievalResult, error) {
	ids := make([]core.ID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}

	chunks, err := p.vectors.GetChunks(ctx, ids...)
	if err != nil {
		return nil, err
	}

	results := make([]*core.RetrievalResult, 0, len(chunks))
	for _, ch := range chunks {
		r := merged[ch.Id]
		if r == nil {
			continue
		}
		if r.Provenance != core.ProvenanceVector && !storage.MatchesAll(ch, filters) {
			continue
		}
		r.Chunk = ch
		results = append(results, r)
	}
	return results, nil
}

// truncate applies the context budget: at most MaxContextChunks results and
// at most MaxContextChars of combined text. The top-ranked chunk is always
// kept even when it alone exceeds the character budget.
func (p *Pipeline) truncate(results []*core.RetrievalResult) []*core.RetrievalResult {
	if len(results) > p.config.MaxContextChunks {
		results = results[:p.config.MaxContextChunks]
	}

	chars := 0
	for i, r := range results {
		chars += len(r.Chunk.Text)
		if chars > p.config.MaxContextChars && i > 0 {
			return results[:i]
		}
	}
	return results
}

func decayPow(decay float32, hops int) float32 {
	return float32(math.Pow(float64(decay), float64(hops)))
}
