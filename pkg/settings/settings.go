// Package settings persists user preferences as a small JSON document.
//
// The document is loaded once at startup and written back after edits and
// batch runs. A missing or corrupt file is never an error for the user:
// [Store.Load] substitutes defaults and logs the parse failure at debug
// level.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/fonts"
	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/task"
)

// Defaults.
const (
	DefaultMargin       = 100
	DefaultPreviewWidth = 512

	// EnvConfig overrides the settings file location.
	EnvConfig = "SCALEBAR_CONFIG"
)

// ImportDefaults are applied to newly imported tasks.
type ImportDefaults struct {
	MagnificationRatio   int               `json:"magnificationRatio"`
	DestinationDirectory string            `json:"destinationDirectory"`
	Alignment            overlay.Alignment `json:"alignment"`
}

// Magnification resolves the stored ratio against the catalog. Unknown
// ratios fall back to the catalog default.
func (d ImportDefaults) Magnification() magnification.Option {
	return magnification.LookupOrDefault(d.MagnificationRatio)
}

// TaskDefaults converts d for task.Import.
func (d ImportDefaults) TaskDefaults() task.Defaults {
	return task.Defaults{
		Magnification:        d.Magnification(),
		Alignment:            d.Alignment,
		DestinationDirectory: d.DestinationDirectory,
	}
}

// AppConfig is the persisted preference document.
type AppConfig struct {
	ImportDefaults       ImportDefaults `json:"importDefaults"`
	ScaleBarLeftMargin   int            `json:"scaleBarLeftMargin"`
	ScaleBarBottomMargin int            `json:"scaleBarBottomMargin"`
	Font                 fonts.Spec     `json:"font"`
	Compositor           string         `json:"compositor"`
	PreviewWidth         int            `json:"previewWidth"`
}

// Default returns the configuration used when nothing is stored.
func Default() AppConfig {
	return AppConfig{
		ImportDefaults: ImportDefaults{
			MagnificationRatio: magnification.Default().Ratio,
			Alignment:          overlay.AlignCenter,
		},
		ScaleBarLeftMargin:   DefaultMargin,
		ScaleBarBottomMargin: DefaultMargin,
		Font:                 fonts.DefaultSpec(),
		Compositor:           overlay.DefaultCompositor,
		PreviewWidth:         DefaultPreviewWidth,
	}
}

// Keys lists the settable keys accepted by Set.
var Keys = []string{
	"magnification",
	"destination",
	"alignment",
	"marginLeft",
	"marginBottom",
	"font.family",
	"font.path",
	"font.allowFallback",
	"compositor",
	"previewWidth",
}

// Set assigns one field from its string form, validating the value.
func (c *AppConfig) Set(key, value string) error {
	switch key {
	case "magnification":
		o, err := magnification.Parse(value)
		if err != nil {
			return err
		}
		c.ImportDefaults.MagnificationRatio = o.Ratio
	case "destination":
		if value != "" {
			if err := errors.ValidatePath(value); err != nil {
				return err
			}
		}
		c.ImportDefaults.DestinationDirectory = value
	case "alignment":
		a, err := overlay.ParseAlignment(value)
		if err != nil {
			return err
		}
		c.ImportDefaults.Alignment = a
	case "marginLeft":
		return setInt(&c.ScaleBarLeftMargin, key, value, 0)
	case "marginBottom":
		return setInt(&c.ScaleBarBottomMargin, key, value, 0)
	case "font.family":
		c.Font.Family = value
	case "font.path":
		c.Font.Path = value
	case "font.allowFallback":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a boolean", key, value)
		}
		c.Font.AllowFallback = b
	case "compositor":
		if _, err := overlay.NewCompositor(value); err != nil {
			return err
		}
		c.Compositor = strings.ToLower(value)
	case "previewWidth":
		return setInt(&c.PreviewWidth, key, value, 1)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown setting %q (one of: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

func setInt(dst *int, key, value string, min int) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < min {
		return errors.New(errors.ErrCodeInvalidInput, "%s: %q must be an integer >= %d", key, value, min)
	}
	*dst = n
	return nil
}

// normalize replaces values that cannot be used with their defaults.
func (c *AppConfig) normalize() {
	d := Default()
	if c.PreviewWidth <= 0 {
		c.PreviewWidth = d.PreviewWidth
	}
	if c.Compositor == "" {
		c.Compositor = d.Compositor
	}
	if c.Font.Family == "" {
		c.Font.Family = d.Font.Family
	}
}

// DefaultPath returns $SCALEBAR_CONFIG, or config.json under the user
// configuration directory.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "scalebar", "config.json"), nil
}

// Store reads and writes an AppConfig document.
type Store struct {
	path   string
	Logger *log.Logger
}

// NewStore creates a store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path, Logger: log.Default()}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load returns the stored configuration, or Default() when the document is
// absent or unparsable. Fields missing from the document keep their default
// values.
func (s *Store) Load() AppConfig {
	cfg, err := s.LoadStrict()
	if err != nil {
		if !errors.Is(err, errors.ErrCodeNotFound) {
			s.Logger.Debug("settings unreadable, using defaults", "path", s.path, "code", errors.GetCode(err), "err", err)
		}
		return Default()
	}
	return cfg
}

// LoadStrict is Load without the fallback: it reports NOT_FOUND for a
// missing document and SETTINGS_PARSE for a corrupt one.
func (s *Store) LoadStrict() (AppConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return AppConfig{}, errors.Wrap(errors.ErrCodeNotFound, err, "no settings at %s", s.path)
		}
		return AppConfig{}, errors.Wrap(errors.ErrCodeSettingsParse, err, "read %s", s.path)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, errors.Wrap(errors.ErrCodeSettingsParse, err, "parse %s", s.path)
	}
	cfg.normalize()
	return cfg, nil
}

// Save overwrites the document with cfg.
func (s *Store) Save(cfg AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	s.Logger.Debug("saved settings", "path", s.path)
	return nil
}
