// Package analysis walks a run in frame order, annotates each frame image
// with its record's outcome, and reassembles the annotated frames into a
// video. The walk pulls records through a prefetcher, so the slow remote
// work happens ahead of the frame being consumed.
package analysis
