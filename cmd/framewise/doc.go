// Command framewise runs the frame inference pipeline: split a video into
// frames, submit them to the remote detector, poll pending answers, and
// render an annotated video once enough frames have settled.
package main
