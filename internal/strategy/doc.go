// Package strategy defines how a frame becomes a frame record.
//
// A Strategy owns the interpretation of one frame: submitting it to the
// remote service, refreshing an unresolved query, and deciding when a record
// counts as answered. The prefetching core schedules and persists records but
// never looks inside them; swapping the strategy changes what is computed per
// frame without touching the scheduling machinery.
package strategy
