package iirds

import "fmt"

// FormatError reports a malformed package. It names the offending artifact so
// the caller can fix the input; format errors are never retryable.
type FormatError struct {
	Artifact string // the file or declaration at fault
	Reason   string
	Err      error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("iirds: bad package artifact %q: %s: %v", e.Artifact, e.Reason, e.Err)
	}
	return fmt.Sprintf("iirds: bad package artifact %q: %s", e.Artifact, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErr(artifact, reason string) *FormatError {
	return &FormatError{Artifact: artifact, Reason: reason}
}

func formatErrWrap(artifact, reason string, err error) *FormatError {
	return &FormatError{Artifact: artifact, Reason: reason, Err: err}
}
