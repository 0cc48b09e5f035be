// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stderr when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// Standard output is left alone: the render command prints the synthesized
// ffmpeg arguments there.
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"format":       "debug",  // Per-module overrides
//			"capabilities": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("format")
//	logger.Debug("Option rejected", "option", "video_codec", "error", err)
//
// Loggers obtained before Initialize stay valid; Initialize updates their
// level and output format in place.
//
// # Viewing Logs
//
// On a system with journald:
//
//	journalctl -t videoformat              # All videoformat logs
//	journalctl -t videoformat -p warning   # Warnings and errors only
//	journalctl -t videoformat MODULE=format
//
// # Configuration
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	format = "debug"
//	probe = "warn"
//	http = "debug"   # every API request, including GETs
package logging
