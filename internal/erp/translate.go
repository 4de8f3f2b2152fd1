package erp

import (
	"net/http"

	"github.com/tallyforge/erpd/internal/frappe"
	"github.com/tallyforge/erpd/internal/result"
)

// opInfo names one operation for the translator, the completion log, and
// the audit event. The notFound and fallback texts are fixed per call site
// so the translator itself stays a pure status-to-kind mapping.
type opInfo struct {
	// name identifies the operation in logs, metrics, and audit subjects.
	name string

	// action and resource complete the permission-denied message:
	// "Permission denied: cannot <action> <resource>".
	action   string
	resource string

	// notFound is the full message for a 404 outcome.
	notFound string

	// fallback is the FIELD_ERROR message used when a failure status
	// carried no server message. Empty means use the error's own text.
	fallback string
}

// translate maps a transport failure to a domain error. Policy by HTTP
// status when the failure carried one:
//
//	404 → NOT_FOUND with the operation's missing-resource message
//	403 → PERMISSION_DENIED naming the attempted action and resource
//	any other status → FIELD_ERROR, server message verbatim when present,
//	  else the operation's fallback constraint message
//
// Failures without a status (network, timeout, decode, recovered panic)
// become FIELD_ERROR carrying the error's own text, never generalized.
func translate(err error, op opInfo) *result.ErrorInfo {
	apiErr, ok := frappe.AsAPIError(err)
	if !ok {
		return result.Errorf(result.FieldError, "%s", err.Error())
	}

	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return result.Errorf(result.NotFound, "%s", op.notFound)
	case http.StatusForbidden:
		return result.Errorf(result.PermissionDenied, "Permission denied: cannot %s %s", op.action, op.resource)
	default:
		if apiErr.Message != "" {
			return result.Errorf(result.FieldError, "%s", apiErr.Message)
		}
		if op.fallback != "" {
			return result.Errorf(result.FieldError, "%s", op.fallback)
		}
		return result.Errorf(result.FieldError, "%s", apiErr.Error())
	}
}

// missingField reports a success response that lacks a field the operation
// contract promises.
func missingField(op opInfo, field string) *result.ErrorInfo {
	return result.Errorf(result.FieldError, "%s response missing expected field %s", op.name, field)
}
