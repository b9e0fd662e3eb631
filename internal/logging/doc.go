// Package logging assembles the structured slog loggers used across the
// tool.
//
// It centralizes level and output plumbing (console or JSON, optionally
// duplicated into a log file), exposes context-aware helpers so supervisor
// code automatically tags log lines with request identifiers, and provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
