// Package result defines the envelope every remote ERP operation returns:
// a tagged union carrying either a typed success payload or a coded domain
// error. Results are values; they are never panicked across a boundary.
package result

import "fmt"

// Kind identifies a domain error category. The set is closed: the operation
// layer never produces a value outside the constants below, and callers
// branch on Kind, never on message text.
type Kind string

const (
	// AuthFailed indicates the session is missing, unconfigured, or rejected
	// by the backend.
	AuthFailed Kind = "AUTH_FAILED"

	// InvalidDoctype indicates a doctype-class parameter was absent or not a
	// usable string.
	InvalidDoctype Kind = "INVALID_DOCTYPE"

	// FieldError covers every field-level violation: failed input validation,
	// server-side validation messages, and transport failures that carry no
	// HTTP status.
	FieldError Kind = "FIELD_ERROR"

	// NotFound indicates the named document or doctype does not exist on the
	// backend.
	NotFound Kind = "NOT_FOUND"

	// PermissionDenied indicates the backend refused the action for the
	// authenticated user.
	PermissionDenied Kind = "PERMISSION_DENIED"
)

// ErrorInfo pairs a machine-matchable code with a human-readable message.
type ErrorInfo struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ErrorInfo) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is the uniform operation envelope. Exactly one of Data and Err is
// populated; construct values through Ok, Fail, Failf, or Failure so the
// invariant holds.
type Result[T any] struct {
	OK   bool       `json:"ok"`
	Data *T         `json:"data,omitempty"`
	Err  *ErrorInfo `json:"error,omitempty"`
}

// Ok wraps a success payload.
func Ok[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: &data}
}

// Fail builds a failed Result with the given code and message.
func Fail[T any](code Kind, message string) Result[T] {
	return Result[T]{Err: &ErrorInfo{Code: code, Message: message}}
}

// Failf builds a failed Result with a formatted message.
func Failf[T any](code Kind, format string, args ...any) Result[T] {
	return Result[T]{Err: Errorf(code, format, args...)}
}

// Failure wraps an existing ErrorInfo, preserving it unchanged. Composite
// operations use this to propagate a stage failure as-is.
func Failure[T any](err *ErrorInfo) Result[T] {
	return Result[T]{Err: err}
}

// Errorf constructs an ErrorInfo with a formatted message.
func Errorf(code Kind, format string, args ...any) *ErrorInfo {
	return &ErrorInfo{Code: code, Message: fmt.Sprintf(format, args...)}
}
