// Package overlay draws calibrated scale bars onto microscopy images.
//
// The package is split into three layers:
//
//   - Geometry: [Compute] places the bar and its label. It is pure and has no
//     dependency on any drawing library.
//   - Compositors: a [Compositor] draws a [Geometry] onto a copy of an image.
//     Two are registered, "gogpu" (github.com/gogpu/gg, the default) and
//     "fogleman" (github.com/fogleman/gg).
//   - Codec: [Decode] and [EncodeFile] move images between disk and memory.
//
// [Renderer] ties them together:
//
//	r := overlay.NewRenderer(fonts.NewResolver(), fonts.DefaultSpec(), nil, logger)
//	out, err := r.RenderFile(ctx, "cell.tiff", overlay.Params{
//	    Option:       magnification.Default(),
//	    MarginLeft:   100,
//	    MarginBottom: 100,
//	}, 0)
//	if err != nil {
//	    return err
//	}
//	defer out.Close()
//	err = overlay.EncodeFile("cell_ScaleBar.tiff", out)
package overlay

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/fonts"
	"github.com/matzehuels/scalebar/pkg/magnification"
)

// Params are the per-render overlay settings.
type Params struct {
	Option       magnification.Option
	Alignment    Alignment
	MarginLeft   int
	MarginBottom int

	// Scale overrides the render scale. Zero derives it from the decoded
	// and stored widths of the image.
	Scale float64
}

// Renderer composes images with their scale-bar overlay. It is safe for
// concurrent use.
type Renderer struct {
	Fonts      *fonts.Resolver
	FontSpec   fonts.Spec
	Compositor Compositor
	Logger     *log.Logger
}

// NewRenderer creates a renderer. A nil compositor selects
// DefaultCompositor; a nil logger uses log.Default().
func NewRenderer(resolver *fonts.Resolver, spec fonts.Spec, c Compositor, logger *log.Logger) *Renderer {
	if resolver == nil {
		resolver = fonts.NewResolver()
	}
	if c == nil {
		c = NewGoGPUCompositor()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{
		Fonts:      resolver,
		FontSpec:   spec,
		Compositor: c,
		Logger:     logger,
	}
}

// Decode reads the image at path. See the package-level Decode.
func (r *Renderer) Decode(path string, targetWidth int) (*Image, error) {
	return Decode(path, targetWidth)
}

// Render returns a new image holding src with the overlay drawn on top. src
// is never modified. The caller owns the result and must Close it.
func (r *Renderer) Render(ctx context.Context, src *Image, p Params) (*Image, error) {
	if src == nil || src.Image == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no image to render")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	face, err := r.Fonts.Resolve(r.FontSpec)
	if err != nil {
		return nil, err
	}
	if face.Fallback {
		r.Logger.Debug("using fallback font", "font", face.Name)
	}

	scale := p.Scale
	if scale <= 0 {
		scale = src.Scale()
	}
	g := Compute(GeometryInput{
		ImageWidth:   src.Width(),
		ImageHeight:  src.Height(),
		MarginLeft:   p.MarginLeft,
		MarginBottom: p.MarginBottom,
		Option:       p.Option,
		Alignment:    p.Alignment,
		Scale:        scale,
	})

	out, err := r.Compositor.Composite(src.Image, g, face)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.Logger.Debug("composited overlay",
		"compositor", r.Compositor.Name(),
		"label", g.Label,
		"scale", scale,
		"bar_x", g.Bar.X,
		"bar_y", g.Bar.Y)

	return &Image{Image: out, SourceWidth: src.SourceWidth, SourceHeight: src.SourceHeight}, nil
}

// RenderFile decodes path and renders it. The intermediate decode is always
// released before returning.
func (r *Renderer) RenderFile(ctx context.Context, path string, p Params, targetWidth int) (*Image, error) {
	src, err := r.Decode(path, targetWidth)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Render(ctx, src, p)
}
