package analysis

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"

	"framewise/internal/frames"
)

// Analyzer turns a frame image plus its record into the image written to the
// output video.
type Analyzer interface {
	Analyze(ctx context.Context, record *frames.Record, img image.Image) (image.Image, error)
}

// StatusBorderAnalyzer frames each image with a colored border: green for a
// yes answer, red for no, yellow while pending, gray when the frame failed.
type StatusBorderAnalyzer struct {
	// Thickness is the border width in pixels. Zero means 8.
	Thickness int

	yesCount atomic.Int64
}

var (
	borderYes     = color.RGBA{R: 0x2e, G: 0xcc, B: 0x40, A: 0xff}
	borderNo      = color.RGBA{R: 0xff, G: 0x41, B: 0x36, A: 0xff}
	borderPending = color.RGBA{R: 0xff, G: 0xdc, B: 0x00, A: 0xff}
	borderFailed  = color.RGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff}
)

// Analyze copies the frame and draws the status border on the copy.
func (a *StatusBorderAnalyzer) Analyze(_ context.Context, record *frames.Record, img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	thickness := a.Thickness
	if thickness <= 0 {
		thickness = 8
	}
	if thickness*2 > bounds.Dx() || thickness*2 > bounds.Dy() {
		thickness = 1
	}

	border := image.NewUniform(a.colorFor(record))
	edges := []image.Rectangle{
		image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+thickness),
		image.Rect(bounds.Min.X, bounds.Max.Y-thickness, bounds.Max.X, bounds.Max.Y),
		image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+thickness, bounds.Max.Y),
		image.Rect(bounds.Max.X-thickness, bounds.Min.Y, bounds.Max.X, bounds.Max.Y),
	}
	for _, edge := range edges {
		draw.Draw(out, edge, border, image.Point{}, draw.Src)
	}

	if record.HasAnswer() && *record.Answer {
		a.yesCount.Add(1)
	}
	return out, nil
}

// YesCount is the number of yes-answered frames analyzed so far.
func (a *StatusBorderAnalyzer) YesCount() int64 {
	return a.yesCount.Load()
}

func (a *StatusBorderAnalyzer) colorFor(record *frames.Record) color.Color {
	switch {
	case record == nil:
		return borderFailed
	case record.HasAnswer() && *record.Answer:
		return borderYes
	case record.HasAnswer():
		return borderNo
	case record.Status == frames.StatusFailed:
		return borderFailed
	default:
		return borderPending
	}
}
