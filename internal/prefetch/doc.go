// Package prefetch schedules frame work ahead of a sequential consumer.
//
// A Prefetcher owns a fixed worker pool and a per-run ordering of frame
// indices. Get blocks until the requested frame's record is ready while a
// sliding look-ahead window keeps the workers busy on upcoming frames, so a
// consumer walking the run in order rarely waits on the remote service. Each
// index is handled at most once per run; per-frame failures are recorded on
// the frame's record and never stop the pool.
package prefetch
