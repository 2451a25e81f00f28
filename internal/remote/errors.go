package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int               `json:"-"`
	Messages   []string          `json:"errorMessages,omitempty"`
	Fields     map[string]string `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, e.Messages...)
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("remote: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("remote: %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// Retryable reports whether the request may succeed when repeated.
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsFieldMetadataMissing reports whether err is the server rejecting a
// query that names a field it does not know.
func IsFieldMetadataMissing(err error) bool {
	var re *Error
	if !errors.As(err, &re) || re.StatusCode != http.StatusBadRequest {
		return false
	}
	for _, m := range re.Messages {
		lower := strings.ToLower(m)
		if strings.Contains(lower, "field") && strings.Contains(lower, "does not exist") {
			return true
		}
	}
	return false
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	var re *Error
	return errors.As(err, &re) && (re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden)
}
