// Package logging assembles structured slog loggers used across framewise.
//
// It owns the console (tint) and JSON handlers, centralizes level plumbing,
// and mirrors log lines into the configured log directory. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
