package overlay

import (
	"image"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/fonts"
)

// FoglemanCompositor draws with github.com/fogleman/gg and freetype.
type FoglemanCompositor struct {
	mu    sync.Mutex
	fonts map[string]*truetype.Font
}

// NewFoglemanCompositor creates a compositor with an empty font cache.
func NewFoglemanCompositor() *FoglemanCompositor {
	return &FoglemanCompositor{fonts: make(map[string]*truetype.Font)}
}

// Name implements Compositor.
func (c *FoglemanCompositor) Name() string { return "fogleman" }

// Composite implements Compositor.
func (c *FoglemanCompositor) Composite(src image.Image, g Geometry, face *fonts.Face) (image.Image, error) {
	f, err := c.font(face)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContextForImage(src)
	dc.SetColor(OverlayColor)
	dc.DrawRectangle(g.Bar.X, g.Bar.Y, g.Bar.Width, g.Bar.Height)
	dc.Fill()

	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: g.FontSize}))
	dc.DrawStringAnchored(g.Label, g.Text.X, g.Text.Y, g.TextAnchor, 1)
	return dc.Image(), nil
}

func (c *FoglemanCompositor) font(face *fonts.Face) (*truetype.Font, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.fonts[face.Name]; ok {
		return f, nil
	}
	f, err := truetype.Parse(face.Data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontUnavailable, err, "parse font %s", face.Name)
	}
	c.fonts[face.Name] = f
	return f, nil
}
