package task

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/overlay"
)

// Defaults are applied to newly imported tasks.
type Defaults struct {
	Magnification        magnification.Option
	Alignment            overlay.Alignment
	DestinationDirectory string
}

// NewTasks builds one task per path using defaults. When no destination
// directory is set, outputs go next to each source.
func NewTasks(paths []string, d Defaults) []Task {
	if !magnification.Canonical(d.Magnification) {
		d.Magnification = magnification.Default()
	}
	tasks := make([]Task, 0, len(paths))
	for _, p := range paths {
		tasks = append(tasks, New(p, d.Magnification, d.Alignment, d.DestinationDirectory))
	}
	return tasks
}

// ValidateDrop checks a dropped list of items. The whole drop is rejected
// with INVALID_EXTENSION if any item has an extension outside
// errors.ImageExtensions.
func ValidateDrop(paths []string) error {
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "nothing to import")
	}
	for _, p := range paths {
		if err := errors.ValidateImagePath(p); err != nil {
			return errors.Wrap(errors.GetCode(err), err, "drop rejected")
		}
	}
	return nil
}

// Picker supplies image paths to import. A picker whose user aborts returns
// an error with code PICKER_CANCELLED.
type Picker interface {
	Pick(ctx context.Context) ([]string, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context) ([]string, error)

// Pick implements Picker.
func (f PickerFunc) Pick(ctx context.Context) ([]string, error) { return f(ctx) }

// StaticPicker returns a fixed list, as with command-line arguments or a
// drag-and-drop payload. An empty list counts as cancelled.
type StaticPicker []string

// Pick implements Picker.
func (p StaticPicker) Pick(ctx context.Context) ([]string, error) {
	if len(p) == 0 {
		return nil, errors.New(errors.ErrCodePickerCancelled, "no files selected")
	}
	return []string(p), nil
}

// DirPicker lists the images in a directory, filtered to the accepted
// extensions and sorted by path.
type DirPicker struct {
	Dir       string
	Recursive bool
}

// Pick implements Picker.
func (p DirPicker) Pick(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(p.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != p.Dir && !p.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if errors.IsImageExtension(filepath.Ext(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodePathMissing, err, "directory %s does not exist", p.Dir)
		}
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodePickerCancelled, "no images in %s", p.Dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// Import runs picker and turns the selection into tasks. A cancelled pick
// returns (nil, nil). The selection is validated as a drop: one bad
// extension rejects everything, and so does a missing file.
func Import(ctx context.Context, picker Picker, d Defaults) ([]Task, error) {
	paths, err := picker.Pick(ctx)
	if err != nil {
		if errors.Silent(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := ValidateDrop(paths); err != nil {
		return nil, err
	}

	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", p)
		}
		info, err := os.Stat(a)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodePathMissing, err, "%s does not exist", p)
		}
		if info.IsDir() {
			return nil, errors.New(errors.ErrCodeInvalidPath, "%s is a directory", p)
		}
		abs[i] = a
	}
	return NewTasks(abs, d), nil
}
