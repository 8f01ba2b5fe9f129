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
	"sync"
	"time"

	"github.com/poiesic/docgraph/chunk"
	"github.com/poiesic/docgraph/core"
)

// IngestResult summarizes one successfully indexed document.
type IngestResult struct {
	DocumentID string
	Units      int
	Chunks     int
	Relations  int
}

// Ingest chunks, embeds, and indexes one document. All embeddings complete
// before the first index write, so an embedding failure leaves both stores
// untouched. With replace set, previously stored data for the same document
// ID is removed first; otherwise new chunks are added alongside existing
// ones. A store failure rolls the document back out of both stores.
//
// Callers ingesting a batch should treat a returned error as failing only
// this document.
func (p *Pipeline) Ingest(ctx context.Context, doc *core.Document, replace bool) (*IngestResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	chunks := p.chunkDocument(doc)

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, &EmbedError{DocumentID: doc.ID, Err: err}
	}

	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	release := p.locks.acquire(doc.ID)
	defer release()

	if replace {
		if err := p.vectors.DeleteByDocument(ctx, doc.ID); err != nil {
			return nil, &WriteError{DocumentID: doc.ID, Err: err}
		}
		if err := p.graph.DeleteDocument(ctx, doc.ID); err != nil {
			return nil, &WriteError{DocumentID: doc.ID, Err: err}
		}
	}

	for i, ch := range chunks {
		if err := p.vectors.Upsert(ctx, ch, vectors[i]); err != nil {
			p.rollback(ctx, doc.ID)
			return nil, &WriteError{DocumentID: doc.ID, Err: err}
		}
	}

	if err := p.graph.UpsertDocument(ctx, doc, chunks); err != nil {
		p.rollback(ctx, doc.ID)
		return nil, &WriteError{DocumentID: doc.ID, Err: err}
	}

	p.logger.Info("document indexed",
		"document", doc.ID,
		"units", len(doc.Units),
		"chunks", len(chunks),
		"relations", len(doc.Relations))

	return &IngestResult{
		DocumentID: doc.ID,
		Units:      len(doc.Units),
		Chunks:     len(chunks),
		Relations:  len(doc.Relations),
	}, nil
}

// Delete removes a document from both indexes.
func (p *Pipeline) Delete(ctx context.Context, documentID string) error {
	release := p.locks.acquire(documentID)
	defer release()

	if err := p.vectors.DeleteByDocument(ctx, documentID); err != nil {
		return &WriteError{DocumentID: documentID, Err: err}
	}
	if err := p.graph.DeleteDocument(ctx, documentID); err != nil {
		return &WriteError{DocumentID: documentID, Err: err}
	}
	return nil
}

// chunkDocument splits every unit of the document. Units without text are
// kept in the graph but contribute no chunks.
func (p *Pipeline) chunkDocument(doc *core.Document) []*core.Chunk {
	var chunks []*core.Chunk
	for i := range doc.Units {
		unit := &doc.Units[i]
		unitChunks := chunk.Unit(unit, p.config.TargetWords, p.config.OverlapWords)
		if len(unitChunks) == 0 {
			p.logger.Debug("unit has no text, skipping chunking",
				"document", doc.ID, "unit", unit.ID)
			continue
		}
		chunks = append(chunks, unitChunks...)
	}
	return chunks
}

// embedChunks computes every chunk vector on the worker pool, each call
// bounded by the configured timeout. The first failure wins; remaining
// workers still drain before it returns.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for i, ch := range chunks {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			embedCtx, cancel := context.WithTimeout(ctx, p.config.EmbedTimeout)
			defer cancel()

			vector, err := p.embedder.EmbedText(embedCtx, ch.Text)
			if err != nil {
				setErr(err)
				return
			}
			vectors[i] = vector
		})
		if err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// rollback best-effort removes a partially written document from both
// stores. Failures are logged; there is nothing further to unwind.
func (p *Pipeline) rollback(ctx context.Context, documentID string) {
	if err := p.vectors.DeleteByDocument(ctx, documentID); err != nil {
		p.logger.Error("rollback of vector index failed",
			"document", documentID, "err", err)
	}
	if err := p.graph.DeleteDocument(ctx, documentID); err != nil {
		p.logger.Error("rollback of graph index failed",
			"document", documentID, "err", err)
	}
}
