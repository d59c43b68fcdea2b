// Package warmup submits a random sample of a run's frames ahead of time.
//
// The remote service improves its answers for a detector as it sees more
// examples, so submitting a small shuffled slice of the frames early and
// letting the results settle makes the later full pass cheaper and more
// confident.
package warmup
