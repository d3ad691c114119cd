// Package logging assembles structured slog loggers and formatting helpers used
// across tagtrack services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so ingestion and processing code
// can tag log lines with import IDs and correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
