package badger

import (
	"encoding/binary"

	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/storage"
)

// Key prefixes for the two indices. Composite keys embed the fixed-width
// 8-byte BigEndian chunk ID as the last segment so prefix scans can recover
// it without delimiter parsing. Variable-length IRI segments are encoded
// with storage.MarshalString (varint length followed by the bytes), so one
// document or unit ID can never be a byte prefix of another's key: varint
// encodings of distinct lengths diverge at their first byte, which keeps a
// scan over "urn:doc:a" from matching keys of "urn:doc:a:sub".
const (
	vecRecordPrefix = "vecrec"  // vecrec:<id8> -> ChunkRecord
	vecDocPrefix    = "vecdoc"  // vecdoc:<doc>:<id8> -> nil (document index)
	vecDimKey       = "vecdim"  // pinned index dimension
	graphUnitPrefix = "grunit"  // grunit:<unit> -> documentID
	graphEdgePrefix = "gredge"  // gredge:<unit> -> []Edge
	graphChunkOf    = "grchof"  // grchof:<id8> -> unitID (chunk membership)
	graphUnitChunks = "gruchk"  // gruchk:<unit>:<id8> -> nil (unit's chunks)
	graphDocPrefix  = "grdoc"   // grdoc:<doc>:<unit> -> nil (document's units)
)

func idBytes(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func idFromBytes(buf []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(buf))
}

// lastID extracts the trailing fixed-width chunk ID from a composite key.
func lastID(key []byte) core.ID {
	return idFromBytes(key[len(key)-8:])
}

// iriSegment length-prefixes a document or unit IRI for embedding in a
// composite key.
func iriSegment(id string) []byte {
	return storage.MarshalString(id)
}

func makeKey(parts ...[]byte) []byte {
	size := len(parts) - 1 // separators
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, p...)
	}
	return buf
}

func makeVecRecordKey(id core.ID) []byte {
	return makeKey([]byte(vecRecordPrefix), idBytes(id))
}

func makeVecDocKey(documentID string, id core.ID) []byte {
	return makeKey([]byte(vecDocPrefix), iriSegment(documentID), idBytes(id))
}

func makeVecDocScanPrefix(documentID string) []byte {
	return append(makeKey([]byte(vecDocPrefix), iriSegment(documentID)), ':')
}

func makeUnitKey(unitID string) []byte {
	return makeKey([]byte(graphUnitPrefix), iriSegment(unitID))
}

func makeEdgeKey(unitID string) []byte {
	return makeKey([]byte(graphEdgePrefix), iriSegment(unitID))
}

func makeChunkOfKey(id core.ID) []byte {
	return makeKey([]byte(graphChunkOf), idBytes(id))
}

func makeUnitChunkKey(unitID string, id core.ID) []byte {
	return makeKey([]byte(graphUnitChunks), iriSegment(unitID), idBytes(id))
}

func makeUnitChunkScanPrefix(unitID string) []byte {
	return append(makeKey([]byte(graphUnitChunks), iriSegment(unitID)), ':')
}

func makeDocUnitKey(documentID, unitID string) []byte {
	return makeKey([]byte(graphDocPrefix), iriSegment(documentID), iriSegment(unitID))
}

func makeDocScanPrefix(documentID string) []byte {
	return append(makeKey([]byte(graphDocPrefix), iriSegment(documentID)), ':')
}
