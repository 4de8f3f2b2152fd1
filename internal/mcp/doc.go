// Package mcp exposes the ERP operation catalog as MCP tools over the
// stdio transport.
//
// Every tool returns the same envelope: {ok, data, error}. Domain failures
// never surface as protocol errors; they come back as IsError results whose
// text is the coded message ("FIELD_ERROR: qty must be greater than 0") and
// whose structured content is the full envelope. Protocol errors are
// reserved for transport breakage.
//
// The process's stdout belongs to the MCP protocol. Anything the server
// logs goes to stderr via the logging package; writing to stdout corrupts
// the session.
package mcp
