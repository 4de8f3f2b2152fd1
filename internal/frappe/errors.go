package frappe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is a structured failure from the backend: the HTTP status plus
// the server message extracted from the response body, when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("erp api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("erp api error: status %d: %s", e.StatusCode, e.Message)
}

// AsAPIError unwraps err to an *APIError when the failure carried an HTTP
// status. Transport-level failures (connection refused, timeout, decode
// errors) report false.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

const maxMessageLen = 512

// extractServerMessage pulls the human-readable message out of a failure
// body. Frappe-style backends spread it across several fields depending on
// the error class; the first populated one wins.
func extractServerMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var envelope struct {
		Message        string `json:"message"`
		Exception      string `json:"exception"`
		ServerMessages string `json:"_server_messages"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return clip(trimmed)
	}

	if envelope.Message != "" {
		return clip(envelope.Message)
	}
	if msg := firstServerMessage(envelope.ServerMessages); msg != "" {
		return clip(msg)
	}
	if envelope.Exception != "" {
		return clip(exceptionText(envelope.Exception))
	}
	return ""
}

// firstServerMessage decodes the backend's doubly-encoded _server_messages
// field: a JSON array of JSON strings, each holding {"message": ...}.
func firstServerMessage(raw string) string {
	if raw == "" {
		return ""
	}
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil || len(entries) == 0 {
		return ""
	}
	var entry struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(entries[0]), &entry); err != nil {
		return entries[0]
	}
	return entry.Message
}

// exceptionText strips the exception class prefix from strings like
// "frappe.exceptions.ValidationError: Customer is mandatory".
func exceptionText(exc string) string {
	if i := strings.Index(exc, ": "); i >= 0 {
		return exc[i+2:]
	}
	return exc
}

func clip(s string) string {
	if len(s) > maxMessageLen {
		return s[:maxMessageLen]
	}
	return s
}
