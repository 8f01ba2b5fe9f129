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
	"math"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/storage"
)

// VectorStore implements storage.VectorStore on BadgerDB with a brute-force
// filtered cosine scan. Collections small enough to live in one Badger value
// log don't earn an ANN index.
type VectorStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a VectorStore on the given backend.
func NewVectorStore(backend *Backend) *VectorStore {
	return &VectorStore{
		backend: backend,
		logger:  slog.Default().With("component", "vector-store"),
	}
}

// Close is part of storage.VectorStore. The backend is owned by the caller.
func (s *VectorStore) Close() error { return nil }

// Upsert stores a chunk with its embedding vector. The first upsert pins the
// index dimension; later vectors of a different length are rejected.
func (s *VectorStore) Upsert(ctx context.Context, chunk *core.Chunk, vector []float32) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		if dim == 0 {
			if err := tx.Set([]byte(vecDimKey), storage.MarshalID(core.ID(len(vector)))); err != nil {
				return err
			}
		} else if dim != len(vector) {
			return storage.ErrDimensionMismatch
		}

		rec := &storage.ChunkRecord{Chunk: *chunk, Vector: vector}
		if err := tx.Set(makeVecRecordKey(chunk.Id), storage.MarshalChunkRecord(rec)); err != nil {
			return err
		}
		if err := tx.Set(makeVecDocKey(chunk.DocumentID, chunk.Id), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteByDocument removes every vector and chunk record of the document.
func (s *VectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeVecDocScanPrefix(documentID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		var docKeys, recKeys [][]byte
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			docKeys = append(docKeys, key)
			recKeys = append(recKeys, makeVecRecordKey(lastID(key)))
		}
		iter.Close()

		for i := range docKeys {
			if err := tx.Delete(recKeys[i]); err != nil {
				return err
			}
			if err := tx.Delete(docKeys[i]); err != nil {
				return err
			}
		}
		s.logger.Debug("deleted document vectors", "document", documentID, "chunks", len(docKeys))
		return tx.Commit()
	}, true)
}

// Search returns at most k chunks ordered by descending cosine similarity,
// ties broken by ascending chunk ID. Filters are evaluated on each candidate
// before it is scored (pre-filter, not post-filter truncation).
func (s *VectorStore) Search(ctx context.Context, vector []float32, k int, filters []storage.Filter) ([]storage.VectorMatch, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if k < 1 {
		return nil, nil
	}

	var matches []storage.VectorMatch
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		if dim == 0 {
			return nil // empty index
		}
		if dim != len(vector) {
			return storage.ErrDimensionMismatch
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vecRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				rec, err := storage.UnmarshalChunkRecord(val)
				if err != nil {
					return err
				}
				if !storage.MatchesAll(&rec.Chunk, filters) {
					return nil
				}
				matches = append(matches, storage.VectorMatch{
					ChunkID: rec.Chunk.Id,
					Score:   CosineSimilarity(vector, rec.Vector),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ChunkID < matches[j].ChunkID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// GetChunk retrieves a single chunk by ID.
func (s *VectorStore) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	chunks, err := s.GetChunks(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, storage.ErrNotFound
	}
	return chunks[0], nil
}

// GetChunks retrieves multiple chunks by their IDs, skipping missing ones.
func (s *VectorStore) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var chunks []*core.Chunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := tx.Get(makeVecRecordKey(id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				rec, err := storage.UnmarshalChunkRecord(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, &rec.Chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// ForEachChunk visits every stored chunk record in key order. Used by the
// re-embedding maintenance flow; not part of the storage.VectorStore contract.
func (s *VectorStore) ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vecRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				rec, err := storage.UnmarshalChunkRecord(val)
				if err != nil {
					return err
				}
				return fn(&rec.Chunk)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// ResetDimension clears the pinned index dimension so the next upsert can
// pin a new one. Only safe when every stored vector is about to be
// rewritten, as during a model switch.
func (s *VectorStore) ResetDimension(ctx context.Context) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete([]byte(vecDimKey)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Dimension returns the pinned index dimension, or 0 when the index is empty.
func (s *VectorStore) Dimension(ctx context.Context) (int, error) {
	if s.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	var dim int
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		dim, err = readDimension(tx)
		return err
	}, false)
	return dim, err
}

func readDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(vecDimKey))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var dim int
	err = item.Value(func(val []byte) error {
		id, err := storage.UnmarshalID(val)
		dim = int(id)
		return err
	})
	return dim, err
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// mapped from [-1,1] to [0,1] so scores compose with hop decay.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32((cos + 1) / 2)
}
