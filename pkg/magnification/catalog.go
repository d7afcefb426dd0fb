// Package magnification holds the fixed calibration table that links an
// instrument magnification ratio to its pixel scale and reference bar length.
//
// The table is immutable: tasks always reference one of its entries, never a
// user-typed ratio. Lookups return values, so callers cannot mutate the
// catalog through them.
package magnification

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/scalebar/pkg/errors"
)

// Option is one calibration record.
type Option struct {
	// Ratio is the magnification factor in thousands (11 means 11K).
	Ratio int `json:"ratio" toml:"ratio" yaml:"ratio"`

	// PixelsPerUnit is the instrument calibration constant.
	PixelsPerUnit float64 `json:"pixelsPerUnit" toml:"pixels_per_unit" yaml:"pixels_per_unit"`

	// ScaleBarNanometers is the real-world length the drawn bar represents.
	ScaleBarNanometers int `json:"scaleBarNanometers" toml:"scale_bar_nanometers" yaml:"scale_bar_nanometers"`
}

// PixelLength returns the number of image pixels that represent 100 nm.
func (o Option) PixelLength() float64 {
	return 100 / (0.1 * o.PixelsPerUnit)
}

// BarLength returns the on-image bar length in pixels at full resolution.
func (o Option) BarLength() float64 {
	return o.PixelLength() * float64(o.ScaleBarNanometers) / 100
}

// Label returns the text drawn above the bar, e.g. "500 nm".
func (o Option) Label() string {
	return fmt.Sprintf("%d nm", o.ScaleBarNanometers)
}

// DisplayText returns the short name shown in listings, e.g. "11K".
func (o Option) DisplayText() string {
	return fmt.Sprintf("%dK", o.Ratio)
}

// String implements fmt.Stringer.
func (o Option) String() string {
	return o.DisplayText()
}

var catalog = [...]Option{
	{Ratio: 11, PixelsPerUnit: 13.3, ScaleBarNanometers: 500},
	{Ratio: 36, PixelsPerUnit: 3.96, ScaleBarNanometers: 100},
	{Ratio: 45, PixelsPerUnit: 3.17, ScaleBarNanometers: 100},
	{Ratio: 57, PixelsPerUnit: 2.5, ScaleBarNanometers: 100},
	{Ratio: 73, PixelsPerUnit: 1.9, ScaleBarNanometers: 100},
	{Ratio: 92, PixelsPerUnit: 1.5, ScaleBarNanometers: 50},
	{Ratio: 120, PixelsPerUnit: 1.2, ScaleBarNanometers: 50},
	{Ratio: 150, PixelsPerUnit: 0.95, ScaleBarNanometers: 50},
	{Ratio: 190, PixelsPerUnit: 0.74, ScaleBarNanometers: 50},
	{Ratio: 240, PixelsPerUnit: 0.58, ScaleBarNanometers: 50},
}

// All returns a copy of the catalog in ascending ratio order.
func All() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog[:])
	return out
}

// Default returns the first catalog entry (11K).
func Default() Option {
	return catalog[0]
}

// Lookup returns the catalog entry for ratio.
func Lookup(ratio int) (Option, bool) {
	for _, o := range catalog {
		if o.Ratio == ratio {
			return o, true
		}
	}
	return Option{}, false
}

// LookupOrDefault returns the entry for ratio, or Default when the ratio is
// not in the catalog.
func LookupOrDefault(ratio int) Option {
	if o, ok := Lookup(ratio); ok {
		return o
	}
	return Default()
}

// Parse resolves user input such as "36", "36K" or "36k" to a catalog entry.
func Parse(s string) (Option, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(s), "K"), "k")
	ratio, err := strconv.Atoi(trimmed)
	if err != nil {
		return Option{}, errors.New(errors.ErrCodeInvalidMagnification, "invalid magnification %q", s)
	}
	return Validate(ratio)
}

// Validate returns the catalog entry for ratio or an INVALID_MAGNIFICATION
// error listing the accepted ratios.
func Validate(ratio int) (Option, error) {
	if o, ok := Lookup(ratio); ok {
		return o, nil
	}
	names := make([]string, len(catalog))
	for i, o := range catalog {
		names[i] = o.DisplayText()
	}
	return Option{}, errors.New(errors.ErrCodeInvalidMagnification,
		"magnification %dK is not calibrated (one of: %s)", ratio, strings.Join(names, ", "))
}

// Canonical reports whether o is identical to its catalog entry.
func Canonical(o Option) bool {
	c, ok := Lookup(o.Ratio)
	return ok && c == o
}
