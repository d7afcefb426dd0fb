package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/task"
)

// Version is the manifest format version written by this package.
const Version = 1

type manifest struct {
	Version int     `json:"version" toml:"version"`
	Tasks   []entry `json:"tasks" toml:"tasks"`
}

type entry struct {
	Image         string `json:"image" toml:"image"`
	Magnification int    `json:"magnification,omitempty" toml:"magnification,omitempty"`
	Alignment     string `json:"alignment,omitempty" toml:"alignment,omitempty"`
	Output        string `json:"output,omitempty" toml:"output,omitempty"`
}

// Format is a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported manifest type %q (use .json or .toml)", filepath.Ext(path))
}

// Write encodes tasks to w.
func Write(w io.Writer, tasks []task.Task, f Format) error {
	m := manifest{Version: Version, Tasks: make([]entry, len(tasks))}
	for i, t := range tasks {
		m.Tasks[i] = entry{
			Image:         t.ImagePath,
			Magnification: t.Magnification.Ratio,
			Alignment:     t.Alignment.String(),
			Output:        t.OutputPath,
		}
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(m); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeUnsupported, "unknown manifest format %q", f)
	}
	return nil
}

// Read decodes a manifest from r into new tasks. Relative image and output
// paths are resolved against baseDir; fields left out take their value from
// d.
//
// Read fails if any entry is invalid; no partial result is returned.
func Read(r io.Reader, f Format, baseDir string, d task.Defaults) ([]task.Task, error) {
	var m manifest
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode manifest")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode manifest")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown manifest format %q", f)
	}
	if m.Version > Version {
		return nil, errors.New(errors.ErrCodeUnsupported, "manifest version %d is newer than supported (%d)", m.Version, Version)
	}
	if !magnification.Canonical(d.Magnification) {
		d.Magnification = magnification.Default()
	}

	tasks := make([]task.Task, 0, len(m.Tasks))
	for i, e := range m.Tasks {
		t, err := e.task(baseDir, d)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (e entry) task(baseDir string, d task.Defaults) (task.Task, error) {
	image := resolve(baseDir, e.Image)
	if err := errors.ValidateImagePath(image); err != nil {
		return task.Task{}, err
	}

	o := d.Magnification
	if e.Magnification != 0 {
		var err error
		if o, err = magnification.Validate(e.Magnification); err != nil {
			return task.Task{}, err
		}
	}

	a := d.Alignment
	if e.Alignment != "" {
		var err error
		if a, err = overlay.ParseAlignment(e.Alignment); err != nil {
			return task.Task{}, err
		}
	}

	t := task.New(image, o, a, d.DestinationDirectory)
	if e.Output != "" {
		t.OutputPath = resolve(baseDir, e.Output)
	}
	return t, nil
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

// Export writes tasks to path, choosing the encoding by extension.
func Export(path string, tasks []task.Task) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(out, tasks, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Import reads the manifest at path. Relative paths inside it resolve
// against the manifest's own directory.
func Import(path string, d task.Defaults) ([]task.Task, error) {
	f, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodePathMissing, err, "manifest %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return Read(in, f, abs, d)
}
