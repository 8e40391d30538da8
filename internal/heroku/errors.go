package heroku

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the Platform API. Body holds the raw
// payload so callers can pass the provider's detail back to their clients.
type APIError struct {
	StatusCode int
	ID         string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("heroku api %d (%s): %s", e.StatusCode, e.ID, e.Message)
	}
	return fmt.Sprintf("heroku api %d: %s", e.StatusCode, e.Body)
}

func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(raw)}
	var payload struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.ID = payload.ID
		apiErr.Message = payload.Message
	}
	return apiErr
}

// IsNameTaken reports whether the provider rejected an app name because
// another app already uses it.
func IsNameTaken(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnprocessableEntity &&
		strings.Contains(strings.ToLower(apiErr.Message), "already taken")
}

// Detail returns the provider payload carried by err, if any.
func Detail(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return apiErr.Body
}
