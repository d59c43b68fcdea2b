package inference

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the inference service. It is distinct
// from a pending result, which is a normal value.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request failed"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("inference: http %d: %s", e.StatusCode, msg)
	}
	return "inference: " + msg
}

// IsNotFound reports whether an error is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
