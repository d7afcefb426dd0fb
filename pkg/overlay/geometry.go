package overlay

import (
	"github.com/matzehuels/scalebar/pkg/magnification"
)

// Full-resolution layout constants. All of them are multiplied by the render
// scale before use.
const (
	// BarHeight is the height of the filled scale bar.
	BarHeight = 15.0

	// TextOffset is the distance from the top of the bar to the top of the
	// label box.
	TextOffset = 90.0

	// FontSize is the label size in points.
	FontSize = 72.0

	// DefaultReferenceWidth is the image width the layout constants were
	// tuned for. It applies only when a caller has no source width; decoded
	// images always scale against their own stored width (see Image.Scale).
	DefaultReferenceWidth = 4096
)

// Rect is an axis-aligned rectangle in image pixels.
type Rect struct {
	X, Y, Width, Height float64
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Point is a position in image pixels.
type Point struct {
	X, Y float64
}

// GeometryInput holds everything Compute needs.
type GeometryInput struct {
	ImageWidth   int
	ImageHeight  int
	MarginLeft   int
	MarginBottom int
	Option       magnification.Option
	Alignment    Alignment

	// Scale is the render scale; values <= 0 mean 1.
	Scale float64
}

// Geometry is the computed overlay placement.
type Geometry struct {
	// Bar is the filled rectangle.
	Bar Rect

	// Text is the top edge of the label box at its horizontal anchor.
	Text Point

	// TextAnchor is the horizontal anchor of the label: 0 left, 0.5 center,
	// 1 right.
	TextAnchor float64

	// FontSize is the scaled label size in points.
	FontSize float64

	// Label is the text to draw, e.g. "500 nm".
	Label string
}

// Compute places the scale bar and its label. It is a pure function: equal
// inputs always produce equal output. The bar is not clipped to the image.
func Compute(in GeometryInput) Geometry {
	s := in.Scale
	if s <= 0 {
		s = 1
	}

	barWidth := in.Option.BarLength() * s
	barHeight := BarHeight * s
	width := float64(in.ImageWidth)
	marginLeft := float64(in.MarginLeft) * s

	var x float64
	switch in.Alignment {
	case AlignCenter:
		x = (width - barWidth) / 2
	case AlignRight:
		x = width - marginLeft - barWidth
	default:
		x = marginLeft
	}

	bar := Rect{
		X:      x,
		Y:      float64(in.ImageHeight) - float64(in.MarginBottom)*s - barHeight,
		Width:  barWidth,
		Height: barHeight,
	}

	anchor := in.Alignment.anchor()
	return Geometry{
		Bar:        bar,
		Text:       Point{X: bar.X + anchor*bar.Width, Y: bar.Y - TextOffset*s},
		TextAnchor: anchor,
		FontSize:   FontSize * s,
		Label:      in.Option.Label(),
	}
}

// RenderScale returns actualWidth / referenceWidth. A non-positive reference
// falls back to DefaultReferenceWidth; a non-positive actual width yields 1.
//
// Previews pass the decoded width and the file's stored width, so a preview
// shows the bar at the same relative size as the full-resolution output and
// full-size renders use scale 1.
func RenderScale(actualWidth, referenceWidth int) float64 {
	if actualWidth <= 0 {
		return 1
	}
	if referenceWidth <= 0 {
		referenceWidth = DefaultReferenceWidth
	}
	return float64(actualWidth) / float64(referenceWidth)
}
