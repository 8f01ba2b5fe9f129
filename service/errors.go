package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/iirds"
	"github.com/poiesic/docgraph/retrieval"
	"github.com/poiesic/docgraph/router"
)

// Error kinds of the HTTP error contract. Clients branch on the kind, not
// on the human-readable message.
const (
	KindIngestionFormat  = "ingestion_format_error"
	KindEmbeddingService = "embedding_service_error"
	KindStoreWrite       = "store_write_error"
	KindModelBackend     = "model_backend_error"
	KindQueryValidation  = "query_validation_error"
	KindInternal         = "internal_error"
)

// ValidationError rejects a malformed request before any work happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// classify maps an error to its kind and HTTP status.
func classify(err error) (kind string, status int) {
	var validationErr *ValidationError
	var formatErr *iirds.FormatError
	var embedErr *retrieval.EmbedError
	var writeErr *retrieval.WriteError
	var backendErr *router.BackendError

	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, core.ErrEmptyQuestion),
		errors.Is(err, core.ErrInvalidMode):
		return KindQueryValidation, http.StatusBadRequest
	case errors.As(err, &formatErr):
		return KindIngestionFormat, http.StatusBadRequest
	case errors.As(err, &embedErr), errors.Is(err, ai.ErrEmbeddingFailed):
		return KindEmbeddingService, http.StatusBadGateway
	case errors.As(err, &writeErr):
		return KindStoreWrite, http.StatusInternalServerError
	case errors.As(err, &backendErr):
		return KindModelBackend, http.StatusBadGateway
	default:
		return KindInternal, http.StatusInternalServerError
	}
}
