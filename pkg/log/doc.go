// Package log provides a structured event trace for subscription registries.
//
// This package defines the Logger interface and Event types for capturing
// every decision a registry makes: which add and remove requests reached
// the notification facility, which were absorbed, and which subscriptions
// were torn down because a participant was invalidated. It is separate
// from operational logging (slog) - the trace is a complete machine-readable
// record for debugging and analysis.
//
// # Basic Usage
//
// Applications configure the trace by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/app/registry.klog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Each event has a Category and an Outcome:
//   - SUBSCRIBE: APPLIED (facility registration), NOOP (duplicate add),
//     SKIPPED (a participant was already invalid)
//   - UNSUBSCRIBE: APPLIED, NOOP (nothing to remove), DEFERRED
//   - TEARDOWN: APPLIED, SKIPPED (target storage already reclaimed), DEFERRED
//   - HOOK: APPLIED (attached), RELEASED
//   - ERROR: facility errors
//
// # File Format
//
// Log files use CBOR encoding with .klog extension. The kvo-log CLI tool
// provides viewing, filtering, and export capabilities.
package log
