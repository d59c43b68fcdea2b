// Package media drives ffprobe and ffmpeg for the frame pipeline: probing a
// source video, splitting it into numbered frame images, and assembling
// annotated frames back into a video at the source frame rate.
package media
