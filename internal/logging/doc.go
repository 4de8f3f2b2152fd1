// Package logging provides structured logging for erpd.
//
// # Overview
//
// The package wraps Zap with:
//   - A custom Trace level (-2, below Debug) for wire-level detail
//   - Stderr and/or OpenTelemetry output (stdout carries the MCP stream
//     and is never written to)
//   - Automatic context field injection (trace_id, operation, request.id)
//   - Encoder-level secret redaction by field name and pattern
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
// Create a logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithOperation(ctx, "quotation_create")
//	logger.Info(ctx, "operation complete", zap.Duration("duration", d))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2026-08-23T10:15:30Z",
//	  "level": "info",
//	  "msg": "operation complete",
//	  "trace_id": "abc123",
//	  "operation": "quotation_create",
//	  "duration": "45ms"
//	}
//
// # Secret Redaction
//
// Credentials and payload bodies are redacted at several layers:
//  1. Domain primitives (config.Secret never prints its value)
//  2. Encoder-level field name filtering (api_key, api_secret, content, ...)
//  3. Encoder-level pattern matching (bearer tokens, token key:secret pairs)
//
// Use the helpers for values that must log only their size:
//
//	logger.Debug(ctx, "uploading file",
//	    logging.RedactedString("content", encoded))
//
// # Testing
//
// TestLogger records entries for assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
//
// Logger is safe for concurrent use; child loggers (With, Named) are
// independent of their parent.
package logging
