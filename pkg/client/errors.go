package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for every non-2xx response from SCM
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	status := fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message == "" {
		return fmt.Sprintf("API error %s on %s %s", status, e.Method, e.Path)
	}
	return fmt.Sprintf("API error %s on %s %s: %s", status, e.Method, e.Path, e.Message)
}

// IsAuthError reports whether SCM rejected the credentials
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NotFoundError is returned when a named resource does not exist in the organization
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// errorMessage extracts the server message from an SCM error body.
// SCM answers {"error": {"message": "..."}}; anything else is returned trimmed.
func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return msg
}
