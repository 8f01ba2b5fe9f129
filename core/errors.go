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

import "errors"

// Domain validation errors
var (
	// ErrEmptyDocumentID indicates a document without an identifier.
	ErrEmptyDocumentID = errors.New("document identifier cannot be empty")

	// ErrEmptyUnitID indicates a content unit without an identifier.
	ErrEmptyUnitID = errors.New("content unit identifier cannot be empty")

	// ErrDuplicateUnitID indicates two content units in one document sharing an identifier.
	ErrDuplicateUnitID = errors.New("duplicate content unit identifier")

	// ErrDanglingRelation indicates a relation referencing a content unit
	// that does not exist in the document.
	ErrDanglingRelation = errors.New("relation references unknown content unit")

	// ErrInvalidMode indicates a mode string other than "local" or "remote".
	ErrInvalidMode = errors.New("mode must be \"local\" or \"remote\"")

	// ErrEmptyQuestion indicates a query without question text.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)
