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

import "fmt"

// EmbedError marks a failed embedding call during ingestion or querying.
// Indexes are never partially written when it occurs.
type EmbedError struct {
	DocumentID string
	Err        error
}

func (e *EmbedError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("embedding failed: %v", e.Err)
	}
	return fmt.Sprintf("embedding failed for document %q: %v", e.DocumentID, e.Err)
}

func (e *EmbedError) Unwrap() error { return e.Err }

// WriteError marks a failed index write. The pipeline rolls back both
// stores before returning it, so the document is absent from the indexes.
type WriteError struct {
	DocumentID string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("index write failed for document %q: %v", e.DocumentID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
