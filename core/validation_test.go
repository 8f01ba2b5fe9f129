package core

import (
	"errors"
	"testing"
)

func TestDocumentValidate(t *testing.T) {
	valid := &Document{
		ID: "doc",
		Units: []ContentUnit{
			{ID: "a"},
			{ID: "b"},
		},
		Relations: []Relation{
			{SourceID: "a", TargetID: "b", Type: "references", Directed: true},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid document, got %v", err)
	}
}

func TestDocumentValidateEmptyID(t *testing.T) {
	doc := &Document{}
	if err := doc.Validate(); !errors.Is(err, ErrEmptyDocumentID) {
		t.Fatalf("Expected ErrEmptyDocumentID, got %v", err)
	}
}

func TestDocumentValidateEmptyUnitID(t *testing.T) {
	doc := &Document{ID: "doc", Units: []ContentUnit{{ID: ""}}}
	if err := doc.Validate(); !errors.Is(err, ErrEmptyUnitID) {
		t.Fatalf("Expected ErrEmptyUnitID, got %v", err)
	}
}

func TestDocumentValidateDuplicateUnits(t *testing.T) {
	doc := &Document{
		ID:    "doc",
		Units: []ContentUnit{{ID: "a"}, {ID: "a"}},
	}
	if err := doc.Validate(); !errors.Is(err, ErrDuplicateUnitID) {
		t.Fatalf("Expected ErrDuplicateUnitID, got %v", err)
	}
}

func TestDocumentValidateDanglingRelation(t *testing.T) {
	doc := &Document{
		ID:    "doc",
		Units: []ContentUnit{{ID: "a"}},
		Relations: []Relation{
			{SourceID: "a", TargetID: "ghost", Type: "references"},
		},
	}
	if err := doc.Validate(); !errors.Is(err, ErrDanglingRelation) {
		t.Fatalf("Expected ErrDanglingRelation, got %v", err)
	}
}

func TestQueryValidate(t *testing.T) {
	q := &Query{Question: "how do I reset the device?", Mode: ModeLocal}
	if err := q.Validate(); err != nil {
		t.Fatalf("Expected valid query, got %v", err)
	}

	empty := &Query{Mode: ModeLocal}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("Expected ErrEmptyQuestion, got %v", err)
	}

	badMode := &Query{Question: "anything"}
	if err := badMode.Validate(); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("Expected ErrInvalidMode, got %v", err)
	}
}
