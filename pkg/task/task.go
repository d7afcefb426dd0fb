// Package task models the queue of images waiting for a scale bar.
//
// A [Task] is one pending job: the source image, the calibration and
// alignment to draw with, and where to write the result. A [Queue] keeps
// tasks in import order; the same image may be queued more than once.
package task

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/overlay"
)

// OutputSuffix is appended to the source base name to form output names.
const OutputSuffix = "_ScaleBar"

// Task is one image awaiting processing.
type Task struct {
	ID            string               `json:"id" toml:"id" yaml:"id"`
	ImagePath     string               `json:"imagePath" toml:"image_path" yaml:"image_path"`
	Magnification magnification.Option `json:"magnification" toml:"magnification" yaml:"magnification"`
	Alignment     overlay.Alignment    `json:"alignment" toml:"alignment" yaml:"alignment"`
	OutputPath    string               `json:"outputPath" toml:"output_path" yaml:"output_path"`
}

// New creates a task for imagePath writing next to dir (or next to the
// source when dir is empty).
func New(imagePath string, o magnification.Option, a overlay.Alignment, dir string) Task {
	return Task{
		ID:            NewID(),
		ImagePath:     imagePath,
		Magnification: o,
		Alignment:     a,
		OutputPath:    OutputPath(imagePath, dir),
	}
}

// NewID returns a fresh task identifier.
func NewID() string {
	return uuid.NewString()
}

// Name returns the base name of the source image.
func (t Task) Name() string {
	return filepath.Base(t.ImagePath)
}

// ShortID returns the first eight characters of the ID.
func (t Task) ShortID() string {
	if len(t.ID) > 8 {
		return t.ID[:8]
	}
	return t.ID
}

// SetMagnification assigns the catalog entry for ratio.
func (t *Task) SetMagnification(ratio int) error {
	o, err := magnification.Validate(ratio)
	if err != nil {
		return err
	}
	t.Magnification = o
	return nil
}

// OutputPath returns {dir}/{basename}_ScaleBar{ext} for source. An empty
// dir keeps the source directory.
func OutputPath(source, dir string) string {
	if dir == "" {
		dir = filepath.Dir(source)
	}
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+OutputSuffix+ext)
}
