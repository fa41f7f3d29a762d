package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a response outside the status an operation expects.
// Body holds the raw response text.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

func newStatusError(op string, status int, body []byte) *StatusError {
	return &StatusError{Op: op, StatusCode: status, Body: string(body)}
}

// ResponseBody returns the backend's response text when err carries one.
func ResponseBody(err error) (string, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Body, true
	}
	return "", false
}
