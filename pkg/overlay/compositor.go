package overlay

import (
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/fonts"
)

// DefaultCompositor is the compositor used when none is configured.
const DefaultCompositor = "gogpu"

// OverlayColor is the fill colour of the bar and the label.
var OverlayColor = color.White

// Compositor draws a computed Geometry onto a copy of an image.
//
// Implementations must not modify src and must be safe for concurrent use.
type Compositor interface {
	// Name identifies the compositor in settings and cache keys.
	Name() string

	// Composite returns a new image holding src with the bar and label
	// drawn on top.
	Composite(src image.Image, g Geometry, face *fonts.Face) (image.Image, error)
}

var compositors = map[string]func() Compositor{
	"gogpu":    func() Compositor { return NewGoGPUCompositor() },
	"fogleman": func() Compositor { return NewFoglemanCompositor() },
}

// CompositorNames returns the registered compositor names, sorted.
func CompositorNames() []string {
	names := make([]string, 0, len(compositors))
	for name := range compositors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCompositor returns the compositor registered under name. An empty name
// selects DefaultCompositor.
func NewCompositor(name string) (Compositor, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultCompositor
	}
	ctor, ok := compositors[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"unknown compositor %q (available: %s)", name, strings.Join(CompositorNames(), ", "))
	}
	return ctor(), nil
}
