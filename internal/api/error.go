package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: %s returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("api: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// newError drains up to maxErrorBody bytes of the response for context.
func newError(resp *http.Response, endpoint string) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &Error{
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
		Body:       strings.TrimSpace(string(body)),
	}
}

// Unauthorized reports whether err is a 401 response, meaning the session
// should (re-)authenticate.
func Unauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
