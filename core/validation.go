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


package core

import "fmt"

// Validate checks the structural invariants of a document: a non-empty
// identifier, unique non-empty unit identifiers, and relations whose
// endpoints all resolve to units of this document.
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrEmptyDocumentID
	}

	seen := make(map[string]bool, len(d.Units))
	for i := range d.Units {
		unit := &d.Units[i]
		if unit.ID == "" {
			return fmt.Errorf("unit %d: %w", i, ErrEmptyUnitID)
		}
		if seen[unit.ID] {
			return fmt.Errorf("unit %q: %w", unit.ID, ErrDuplicateUnitID)
		}
		seen[unit.ID] = true
	}

	for _, rel := range d.Relations {
		if !seen[rel.SourceID] {
			return fmt.Errorf("relation %q source %q: %w", rel.Type, rel.SourceID, ErrDanglingRelation)
		}
		if !seen[rel.TargetID] {
			return fmt.Errorf("relation %q target %q: %w", rel.Type, rel.TargetID, ErrDanglingRelation)
		}
	}

	return nil
}

// Validate checks that a query carries question text and a known mode.
func (q *Query) Validate() error {
	if q.Question == "" {
		return ErrEmptyQuestion
	}
	if q.Mode != ModeLocal && q.Mode != ModeRemote {
		return ErrInvalidMode
	}
	return nil
}
