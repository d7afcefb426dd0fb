package overlay

import (
	"strings"

	"github.com/matzehuels/scalebar/pkg/errors"
)

// Alignment is the horizontal placement of the bar and label block.
type Alignment int

const (
	// AlignLeft places the bar MarginLeft pixels from the left edge.
	AlignLeft Alignment = iota
	// AlignCenter centers the bar horizontally; MarginLeft is ignored.
	AlignCenter
	// AlignRight places the bar MarginLeft pixels from the right edge.
	AlignRight
)

// Alignments lists every alignment in display order.
var Alignments = []Alignment{AlignLeft, AlignCenter, AlignRight}

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

func (a Alignment) anchor() float64 {
	switch a {
	case AlignCenter:
		return 0.5
	case AlignRight:
		return 1
	default:
		return 0
	}
}

// ParseAlignment parses "left", "center" or "right" (case-insensitive).
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "":
		return AlignLeft, nil
	case "center", "centre":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	}
	return AlignLeft, errors.New(errors.ErrCodeInvalidAlignment, "invalid alignment %q (must be left, center or right)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Alignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Alignment) UnmarshalText(text []byte) error {
	v, err := ParseAlignment(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
