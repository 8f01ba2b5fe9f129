package router

import (
	"fmt"

	"github.com/poiesic/docgraph/core"
)

// BackendError reports a failed or unavailable model backend. It always
// names the mode the caller asked for; the router never answers with the
// other backend instead.
type BackendError struct {
	Mode      core.Mode
	Reason    string
	Retryable bool
	Err       error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s model backend: %s", e.Mode, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Retryable {
		msg += " (retry may succeed)"
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Err }
