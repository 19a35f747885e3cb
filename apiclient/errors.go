package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrNoRefreshToken = errors.New("no refresh token stored")

// Error is returned for every failed call: Status and Message describe an
// HTTP error response, IsNetworkError marks calls that got no response at all.
type Error struct {
	Status         int
	Message        string
	IsNetworkError bool

	Method string
	Path   string
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	if e.IsNetworkError {
		return fmt.Sprintf("%s %s: network error: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of err, 0 when err carries none.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNetworkError reports whether err is a call that never got a response.
func IsNetworkError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsNetworkError
}

var messagePaths = []string{"message", "error.message", "error", "error_description", "detail"}

// serverMessage picks the human readable message out of an error body
func serverMessage(body []byte, status int) string {
	if gjson.ValidBytes(body) {
		for _, path := range messagePaths {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}
