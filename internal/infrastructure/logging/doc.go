// Package logging provides structured logging for the garage remote.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the service and CLI.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - password, secret and token attributes are redacted
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("connecting to broker", "url", cfg.Broker.URL)
//	logger.Error("failed to open database", "error", err)
package logging
