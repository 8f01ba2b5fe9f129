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


package badger

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/storage"
)

// GraphStore implements storage.GraphStore on BadgerDB: unit nodes with
// adjacency lists, plus chunk membership indices for expansion.
type GraphStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a GraphStore on the given backend.
func NewGraphStore(backend *Backend) *GraphStore {
	return &GraphStore{
		backend: backend,
		logger:  slog.Default().With("component", "graph-store"),
	}
}

// Close is part of storage.GraphStore. The backend is owned by the caller.
func (s *GraphStore) Close() error { return nil }

// UpsertDocument stores the document's unit nodes, relation edges, and chunk
// membership. Every relation is written to both endpoints' adjacency lists;
// the reverse entry of a directed relation is kept non-traversable.
func (s *GraphStore) UpsertDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	adjacency := make(map[string][]storage.Edge, len(doc.Units))
	for _, rel := range doc.Relations {
		adjacency[rel.SourceID] = append(adjacency[rel.SourceID], storage.Edge{
			Target:   rel.TargetID,
			Type:     rel.Type,
			Directed: rel.Directed,
			Forward:  true,
		})
		adjacency[rel.TargetID] = append(adjacency[rel.TargetID], storage.Edge{
			Target:   rel.SourceID,
			Type:     rel.Type,
			Directed: rel.Directed,
			Forward:  false,
		})
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for i := range doc.Units {
			unit := &doc.Units[i]
			if err := tx.Set(makeUnitKey(unit.ID), storage.MarshalString(doc.ID)); err != nil {
				return err
			}
			if err := tx.Set(makeDocUnitKey(doc.ID, unit.ID), nil); err != nil {
				return err
			}
			if edges := adjacency[unit.ID]; len(edges) > 0 {
				if err := tx.Set(makeEdgeKey(unit.ID), storage.MarshalEdges(edges)); err != nil {
					return err
				}
			}
		}
		for _, chunk := range chunks {
			if err := tx.Set(makeChunkOfKey(chunk.Id), storage.MarshalString(chunk.UnitID)); err != nil {
				return err
			}
			if err := tx.Set(makeUnitChunkKey(chunk.UnitID, chunk.Id), nil); err != nil {
				return err
			}
		}
		s.logger.Debug("upserted document graph",
			"document", doc.ID, "units", len(doc.Units), "chunks", len(chunks))
		return tx.Commit()
	}, true)
}

// DeleteDocument removes the document's nodes, edges, and chunk membership.
func (s *GraphStore) DeleteDocument(ctx context.Context, documentID string) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		unitIDs, err := collectDocUnits(tx, documentID)
		if err != nil {
			return err
		}

		var deletions [][]byte
		for _, unitID := range unitIDs {
			deletions = append(deletions,
				makeUnitKey(unitID),
				makeEdgeKey(unitID),
				makeDocUnitKey(documentID, unitID))

			prefix := makeUnitChunkScanPrefix(unitID)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				key := iter.Item().KeyCopy(nil)
				deletions = append(deletions, key, makeChunkOfKey(lastID(key)))
			}
			iter.Close()
		}

		for _, key := range deletions {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		s.logger.Debug("deleted document graph", "document", documentID, "units", len(unitIDs))
		return tx.Commit()
	}, true)
}

// Expand returns every chunk belonging to a unit reachable from the seed
// chunks' units via one to hopLimit relation hops, mapped to its minimum hop
// distance. Chunks of the seed units themselves (hop 0) are not part of the
// expansion unless another seed's unit links to them: with no authored
// relations the expansion is empty and retrieval stays purely vector-ranked.
func (s *GraphStore) Expand(ctx context.Context, seeds []core.ID, hopLimit int) (map[core.ID]int, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if len(seeds) == 0 || hopLimit < 1 {
		return map[core.ID]int{}, nil
	}

	result := make(map[core.ID]int)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		// BFS frontier over units, starting from the seeds' units at hop 0.
		unitHops := make(map[string]int)
		var frontier []string
		for _, id := range seeds {
			unitID, err := readString(tx, makeChunkOfKey(id))
			if err == badger.ErrKeyNotFound {
				continue // seed not in the graph; vector-only content
			}
			if err != nil {
				return err
			}
			if _, seen := unitHops[unitID]; !seen {
				unitHops[unitID] = 0
				frontier = append(frontier, unitID)
			}
		}

		// A seed unit reached from another seed unit counts as expanded at
		// that hop; callers mark its chunks as found both ways.
		seedReached := make(map[string]int)

		for hop := 1; hop <= hopLimit && len(frontier) > 0; hop++ {
			var next []string
			for _, unitID := range frontier {
				edges, err := readEdges(tx, unitID)
				if err != nil {
					return err
				}
				for _, e := range edges {
					if e.Directed && !e.Forward {
						continue
					}
					if prev, seen := unitHops[e.Target]; seen {
						if prev == 0 {
							if _, ok := seedReached[e.Target]; !ok {
								seedReached[e.Target] = hop
							}
						}
						continue
					}
					unitHops[e.Target] = hop
					next = append(next, e.Target)
				}
			}
			frontier = next
		}

		for unitID, hop := range seedReached {
			unitHops[unitID] = hop
		}

		for unitID, hops := range unitHops {
			if hops == 0 {
				continue // seed unit never linked from another seed
			}
			chunkIDs, err := collectUnitChunks(tx, unitID)
			if err != nil {
				return err
			}
			for _, id := range chunkIDs {
				if prev, ok := result[id]; !ok || hops < prev {
					result[id] = hops
				}
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func collectDocUnits(tx *badger.Txn, documentID string) ([]string, error) {
	prefix := makeDocScanPrefix(documentID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var unitIDs []string
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		unitID, err := storage.UnmarshalString(key[len(prefix):])
		if err != nil {
			return nil, err
		}
		unitIDs = append(unitIDs, unitID)
	}
	return unitIDs, nil
}

func collectUnitChunks(tx *badger.Txn, unitID string) ([]core.ID, error) {
	prefix := makeUnitChunkScanPrefix(unitID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		ids = append(ids, lastID(iter.Item().Key()))
	}
	return ids, nil
}

func readString(tx *badger.Txn, key []byte) (string, error) {
	item, err := tx.Get(key)
	if err != nil {
		return "", err
	}
	var s string
	err = item.Value(func(val []byte) error {
		var err error
		s, err = storage.UnmarshalString(val)
		return err
	})
	return s, err
}

func readEdges(tx *badger.Txn, unitID string) ([]storage.Edge, error) {
	item, err := tx.Get(makeEdgeKey(unitID))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var edges []storage.Edge
	err = item.Value(func(val []byte) error {
		var err error
		edges, err = storage.UnmarshalEdges(val)
		return err
	})
	return edges, err
}
