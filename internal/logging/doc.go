// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// Every record is additionally written to an in-memory ring buffer. The
// buffer is the daemon's log sink: the operator API tails it for the
// /api/server/logs endpoint and replays it to new SSE subscribers, and the
// command handlers read recent "server" module lines as diagnostic context
// when a start attempt fails.
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"supervisor": "debug",  // Per-module overrides
//			"api":        "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("supervisor")
//	logger.Info("Process started", "pid", pid)
//
// Relayed output from the supervised server process goes through the "server"
// module logger, which keeps it separable from daemon-internal events in both
// the journal and the ring buffer.
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t mcwarden              # All mcwarden logs
//	journalctl -t mcwarden -f           # Follow live
//	journalctl -t mcwarden -p err       # Errors only
//	journalctl -t mcwarden MODULE=server
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
//	supervisor = "debug"
//	server = "info"
//	api = "warn"
package logging
