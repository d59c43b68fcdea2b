// Package services defines shared utilities consumed by the frame pipeline
// components and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp frame indices, prefetch actions, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent: configuration and validation errors are
//     fatal, transient and external-tool errors are recorded per frame and
//     retried on a later pass.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
