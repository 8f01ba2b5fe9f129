package storage

import (
	"testing"

	"github.com/poiesic/docgraph/core"
	"github.com/stretchr/testify/assert"
)

func TestParseFilters(t *testing.T) {
	raw := map[string]string{
		"language": "en",
		"text_len": ">= 100",
		"topic":    "<=task",
	}

	filters := ParseFilters(raw)
	assert.Len(t, filters, 3)

	byKey := make(map[string]Filter)
	for _, f := range filters {
		byKey[f.Key] = f
	}

	assert.Equal(t, Filter{Key: "language", Op: FilterEq, Value: "en"}, byKey["language"])
	assert.Equal(t, Filter{Key: "text_len", Op: FilterGTE, Value: "100"}, byKey["text_len"])
	assert.Equal(t, Filter{Key: "topic", Op: FilterLTE, Value: "task"}, byKey["topic"])
}

func TestFilterMatchesEquality(t *testing.T) {
	chunk := &core.Chunk{
		Text:     "0123456789",
		Metadata: map[string]string{"language": "en"},
	}

	assert.True(t, Filter{Key: "language", Op: FilterEq, Value: "en"}.Matches(chunk))
	assert.False(t, Filter{Key: "language", Op: FilterEq, Value: "de"}.Matches(chunk))
	// Missing key never matches.
	assert.False(t, Filter{Key: "topic", Op: FilterEq, Value: "task"}.Matches(chunk))
}

func TestFilterMatchesTextLen(t *testing.T) {
	chunk := &core.Chunk{Text: "0123456789"} // length 10

	assert.True(t, Filter{Key: "text_len", Op: FilterEq, Value: "10"}.Matches(chunk))
	assert.True(t, Filter{Key: "text_len", Op: FilterGTE, Value: "10"}.Matches(chunk))
	assert.True(t, Filter{Key: "text_len", Op: FilterLTE, Value: "10"}.Matches(chunk))
	assert.False(t, Filter{Key: "text_len", Op: FilterGTE, Value: "11"}.Matches(chunk))
	assert.False(t, Filter{Key: "text_len", Op: FilterLTE, Value: "9"}.Matches(chunk))

	// Numeric, not lexicographic: 10 >= 9 even though "10" < "9".
	assert.True(t, Filter{Key: "text_len", Op: FilterGTE, Value: "9"}.Matches(chunk))
}

func TestMatchesAllConjunction(t *testing.T) {
	chunk := &core.Chunk{
		Text: "some text",
		Metadata: map[string]string{
			"language": "en",
			"topic":    "task",
		},
	}

	both := []Filter{
		{Key: "language", Op: FilterEq, Value: "en"},
		{Key: "topic", Op: FilterEq, Value: "task"},
	}
	assert.True(t, MatchesAll(chunk, both))

	oneWrong := []Filter{
		{Key: "language", Op: FilterEq, Value: "en"},
		{Key: "topic", Op: FilterEq, Value: "reference"},
	}
	assert.False(t, MatchesAll(chunk, oneWrong))

	assert.True(t, MatchesAll(chunk, nil))
}
