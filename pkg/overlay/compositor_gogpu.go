package overlay

import (
	"image"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/fonts"
)

// GoGPUCompositor draws with github.com/gogpu/gg on its software renderer.
type GoGPUCompositor struct {
	mu      sync.Mutex
	sources map[string]*text.FontSource
}

// NewGoGPUCompositor creates a compositor with an empty font source cache.
func NewGoGPUCompositor() *GoGPUCompositor {
	return &GoGPUCompositor{sources: make(map[string]*text.FontSource)}
}

// Name implements Compositor.
func (c *GoGPUCompositor) Name() string { return "gogpu" }

// Composite implements Compositor.
func (c *GoGPUCompositor) Composite(src image.Image, g Geometry, face *fonts.Face) (image.Image, error) {
	source, err := c.source(face)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContextForImage(src)
	defer dc.Close()

	dc.SetColor(OverlayColor)
	dc.DrawRectangle(g.Bar.X, g.Bar.Y, g.Bar.Width, g.Bar.Height)
	if err := dc.Fill(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "fill scale bar")
	}

	// DrawString takes the baseline; Text.Y is the top of the label box.
	f := source.Face(g.FontSize)
	dc.SetFont(f)
	w, _ := dc.MeasureString(g.Label)
	dc.DrawString(g.Label, g.Text.X-w*g.TextAnchor, g.Text.Y+f.Metrics().Ascent)

	if err := dc.FlushGPU(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "flush drawing")
	}
	return dc.Image(), nil
}

func (c *GoGPUCompositor) source(face *fonts.Face) (*text.FontSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sources[face.Name]; ok {
		return s, nil
	}
	s, err := text.NewFontSource(face.Data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontUnavailable, err, "parse font %s", face.Name)
	}
	c.sources[face.Name] = s
	return s, nil
}

// Close releases the cached font sources.
func (c *GoGPUCompositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, s := range c.sources {
		_ = s.Close()
		delete(c.sources, name)
	}
	return nil
}
