package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any StatusError carrying 401 or 403.
var ErrUnauthorized = errors.New("backend rejected the session")

// StatusError is returned when the backend answers with a non-2xx/3xx status.
type StatusError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s %s returned %d: %s", e.Op, e.Method, e.Path, e.StatusCode, e.Message())
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Message is the trimmed response body, or the status text when the body is empty.
func (e *StatusError) Message() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return http.StatusText(e.StatusCode)
}

// Describe renders err the way the UI reports it: "<status> <body>" for
// backend rejections, the error text for everything else.
func Describe(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("%d %s", statusErr.StatusCode, statusErr.Message())
	}
	return err.Error()
}
