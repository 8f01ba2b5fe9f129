package storage

import (
	"strconv"
	"strings"

	"github.com/poiesic/docgraph/core"
)

// FilterOp is a comparison operator for metadata filters.
type FilterOp int

const (
	// FilterEq matches values equal to the filter value.
	FilterEq FilterOp = iota
	// FilterGTE matches values greater than or equal to the filter value.
	FilterGTE
	// FilterLTE matches values less than or equal to the filter value.
	FilterLTE
)

// Filter is one conjunctive constraint on chunk metadata. Filters are
// evaluated before ranking (pre-filter, not post-filter truncation).
type Filter struct {
	Key   string
	Op    FilterOp
	Value string
}

// ParseFilters converts the flat key→value filter mapping of the query
// contract into typed filters. A value prefixed ">=" or "<=" becomes a range
// constraint; anything else is an equality constraint.
func ParseFilters(raw map[string]string) []Filter {
	filters := make([]Filter, 0, len(raw))
	for key, value := range raw {
		f := Filter{Key: key, Op: FilterEq, Value: value}
		switch {
		case strings.HasPrefix(value, ">="):
			f.Op = FilterGTE
			f.Value = strings.TrimSpace(value[2:])
		case strings.HasPrefix(value, "<="):
			f.Op = FilterLTE
			f.Value = strings.TrimSpace(value[2:])
		}
		filters = append(filters, f)
	}
	return filters
}

// Matches reports whether the chunk satisfies the filter. The key "text_len"
// resolves to the chunk's text length; every other key resolves to chunk
// metadata. Range comparisons are numeric when both sides parse as numbers,
// lexicographic otherwise.
func (f Filter) Matches(chunk *core.Chunk) bool {
	var actual string
	if f.Key == "text_len" {
		actual = strconv.Itoa(len(chunk.Text))
	} else {
		var ok bool
		actual, ok = chunk.Metadata[f.Key]
		if !ok {
			return false
		}
	}

	switch f.Op {
	case FilterGTE:
		return compareValues(actual, f.Value) >= 0
	case FilterLTE:
		return compareValues(actual, f.Value) <= 0
	default:
		return actual == f.Value
	}
}

// MatchesAll reports whether the chunk satisfies every filter (conjunction).
func MatchesAll(chunk *core.Chunk, filters []Filter) bool {
	for _, f := range filters {
		if !f.Matches(chunk) {
			return false
		}
	}
	return true
}

func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
