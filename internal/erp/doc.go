// Package erp implements the remote operations exposed over MCP: child
// table replacement, link autocomplete, file upload, comments, sales
// document creation, lead conversion, and the sales pipeline report.
//
// Every operation runs the same four-stage pipeline: the auth gate reads
// the session capability, the validator runs the operation's ordered check
// list, the transport call executes against the backend, and the outcome is
// either extracted into a typed payload or translated into one of the five
// domain error kinds. Failures are values — a Result with ok false — and
// never Go errors or panics; any panic raised below the pipeline is
// recovered and converted to a FIELD_ERROR.
package erp
