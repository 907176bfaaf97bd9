package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable marks transport-level failures: the service could not be
// reached at all. The connectivity orchestrator treats these as "offline".
var ErrUnavailable = errors.New("remote service unavailable")

// StatusError is an HTTP-level rejection from the remote service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Body)
}

// IsNotFound reports whether err is a remote 404, e.g. a queued operation
// referencing a record that no longer exists remotely.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
