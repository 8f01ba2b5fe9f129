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


package storage

import (
	"fmt"
	"sort"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docgraph/core"
)

// ChunkRecord is the stored form of a chunk together with its embedding
// vector. The vector lives and dies with the chunk record, which is what
// keeps the no-orphan invariant a single-key property.
type ChunkRecord struct {
	Chunk  core.Chunk
	Vector []float32
}

// Edge is one stored adjacency entry of the unit relation graph. Every
// relation is stored on both endpoints; Forward distinguishes the authored
// direction so directed relations are only traversed source→target.
type Edge struct {
	Target   string
	Type     string
	Directed bool
	Forward  bool
}

// MarshalChunkRecord serializes a ChunkRecord to bytes.
// Metadata keys are written in sorted order so the encoding is deterministic.
func MarshalChunkRecord(rec *ChunkRecord) []byte {
	buf := make([]byte, sizeChunkRecord(rec))
	n := varint.Uint64.Marshal(uint64(rec.Chunk.Id), buf)
	n += ord.String.Marshal(rec.Chunk.UnitID, buf[n:])
	n += ord.String.Marshal(rec.Chunk.DocumentID, buf[n:])
	n += ord.String.Marshal(rec.Chunk.Text, buf[n:])
	n += varint.Int.Marshal(rec.Chunk.Index, buf[n:])
	n += varint.Int.Marshal(rec.Chunk.Start, buf[n:])
	n += varint.Int.Marshal(rec.Chunk.End, buf[n:])
	n += varint.Int.Marshal(rec.Chunk.Overlap, buf[n:])

	keys := sortedKeys(rec.Chunk.Metadata)
	n += varint.Int.Marshal(len(keys), buf[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(rec.Chunk.Metadata[k], buf[n:])
	}

	n += varint.Int.Marshal(len(rec.Vector), buf[n:])
	for _, v := range rec.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (rec *ChunkRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: chunk record: %w", ErrSerializationFailed, err)
			rec = nil
		}
	}()

	rec = &ChunkRecord{}
	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return
	}
	rec.Chunk.Id = core.ID(id)
	if rec.Chunk.UnitID, n, err = unmarshalString(data, n); err != nil {
		return
	}
	if rec.Chunk.DocumentID, n, err = unmarshalString(data, n); err != nil {
		return
	}
	if rec.Chunk.Text, n, err = unmarshalString(data, n); err != nil {
		return
	}
	if rec.Chunk.Index, n, err = unmarshalInt(data, n); err != nil {
		return
	}
	if rec.Chunk.Start, n, err = unmarshalInt(data, n); err != nil {
		return
	}
	if rec.Chunk.End, n, err = unmarshalInt(data, n); err != nil {
		return
	}
	if rec.Chunk.Overlap, n, err = unmarshalInt(data, n); err != nil {
		return
	}

	var count int
	if count, n, err = unmarshalInt(data, n); err != nil {
		return
	}
	if err = checkCount(count, len(data)-n); err != nil {
		return
	}
	if count > 0 {
		rec.Chunk.Metadata = make(map[string]string, count)
		for i := 0; i < count; i++ {
			var k, v string
			if k, n, err = unmarshalString(data, n); err != nil {
				return
			}
			if v, n, err = unmarshalString(data, n); err != nil {
				return
			}
			rec.Chunk.Metadata[k] = v
		}
	}

	var dim int
	if dim, n, err = unmarshalInt(data, n); err != nil {
		return
	}
	if err = checkCount(dim, len(data)-n); err != nil {
		return
	}
	rec.Vector = make([]float32, dim)
	for i := 0; i < dim; i++ {
		var m int
		if rec.Vector[i], m, err = raw.Float32.Unmarshal(data[n:]); err != nil {
			return
		}
		n += m
	}
	return rec, nil
}

// MarshalEdges serializes an adjacency list to bytes.
func MarshalEdges(edges []Edge) []byte {
	size := varint.Int.Size(len(edges))
	for _, e := range edges {
		size += ord.String.Size(e.Target) + ord.String.Size(e.Type) +
			ord.Bool.Size(e.Directed) + ord.Bool.Size(e.Forward)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(edges), buf)
	for _, e := range edges {
		n += ord.String.Marshal(e.Target, buf[n:])
		n += ord.String.Marshal(e.Type, buf[n:])
		n += ord.Bool.Marshal(e.Directed, buf[n:])
		n += ord.Bool.Marshal(e.Forward, buf[n:])
	}
	return buf
}

// UnmarshalEdges deserializes an adjacency list from bytes.
func UnmarshalEdges(data []byte) (edges []Edge, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: edge list: %w", ErrSerializationFailed, err)
			edges = nil
		}
	}()

	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return
	}
	if err = checkCount(count, len(data)-n); err != nil {
		return
	}
	edges = make([]Edge, count)
	for i := 0; i < count; i++ {
		var m int
		if edges[i].Target, m, err = ord.String.Unmarshal(data[n:]); err != nil {
			return
		}
		n += m
		if edges[i].Type, m, err = ord.String.Unmarshal(data[n:]); err != nil {
			return
		}
		n += m
		if edges[i].Directed, m, err = ord.Bool.Unmarshal(data[n:]); err != nil {
			return
		}
		n += m
		if edges[i].Forward, m, err = ord.Bool.Unmarshal(data[n:]); err != nil {
			return
		}
		n += m
	}
	return edges, nil
}

// MarshalString serializes a single string value.
func MarshalString(s string) []byte {
	buf := make([]byte, ord.String.Size(s))
	ord.String.Marshal(s, buf)
	return buf
}

// UnmarshalString deserializes a single string value.
func UnmarshalString(data []byte) (string, error) {
	s, _, err := ord.String.Unmarshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: string: %w", ErrSerializationFailed, err)
	}
	return s, nil
}

// MarshalID serializes a chunk ID.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes a chunk ID.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

func sizeChunkRecord(rec *ChunkRecord) int {
	size := varint.Uint64.Size(uint64(rec.Chunk.Id)) +
		ord.String.Size(rec.Chunk.UnitID) +
		ord.String.Size(rec.Chunk.DocumentID) +
		ord.String.Size(rec.Chunk.Text) +
		varint.Int.Size(rec.Chunk.Index) +
		varint.Int.Size(rec.Chunk.Start) +
		varint.Int.Size(rec.Chunk.End) +
		varint.Int.Size(rec.Chunk.Overlap) +
		varint.Int.Size(len(rec.Chunk.Metadata))
	for k, v := range rec.Chunk.Metadata {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	size += varint.Int.Size(len(rec.Vector))
	for _, v := range rec.Vector {
		size += raw.Float32.Size(v)
	}
	return size
}

// checkCount rejects decoded element counts that cannot fit in the remaining
// input. Every encoded element occupies at least one byte, so a larger count
// means corrupted data and would otherwise drive an unbounded allocation.
func checkCount(count, remaining int) error {
	if count < 0 || count > remaining {
		return fmt.Errorf("implausible element count %d with %d bytes remaining", count, remaining)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unmarshalString(data []byte, offset int) (string, int, error) {
	s, n, err := ord.String.Unmarshal(data[offset:])
	return s, offset + n, err
}

func unmarshalInt(data []byte, offset int) (int, int, error) {
	v, n, err := varint.Int.Unmarshal(data[offset:])
	return v, offset + n, err
}
