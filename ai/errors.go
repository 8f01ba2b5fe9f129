package ai

import (
	"errors"
	"fmt"
)

// ErrEmbeddingFailed marks embedding-service failures (unreachable host,
// timeout, malformed response). These are retryable by the caller.
var ErrEmbeddingFailed = errors.New("embedding service failure")

// EmbeddingError wraps an upstream embedding failure so callers can
// distinguish it from store or format errors.
func EmbeddingError(err error) error {
	return fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
}
