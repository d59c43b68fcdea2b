// Package frames persists per-frame metadata records in SQLite and exposes
// helpers for the frame file layout on disk.
//
// The Store manages the database connection, schema initialization, per-key
// upserts, stats queries, and failed-record recovery. Records are keyed by
// frame index so they can be written out of order by concurrent workers and
// re-read by a later pass; a partially processed run always leaves a valid,
// resumable database behind.
//
// Treat this package as the single source of truth for record semantics: the
// status lifecycle is monotonic (answered never regresses) and Save enforces
// it unless the caller explicitly forces a re-process.
package frames
