package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/overlay"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.json"))
	if got := s.Load(); got != Default() {
		t.Errorf("Load() = %+v, want defaults", got)
	}
	if _, err := s.LoadStrict(); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("LoadStrict() error = %v, want NOT_FOUND", err)
	}
}

func TestDefault(t *testing.T) {
	d := Default()
	if d.ImportDefaults.MagnificationRatio != 11 || d.ImportDefaults.Alignment != overlay.AlignCenter {
		t.Errorf("import defaults = %+v, want 11K centered", d.ImportDefaults)
	}
	if d.ScaleBarLeftMargin != 100 || d.ScaleBarBottomMargin != 100 {
		t.Errorf("margins = %d/%d, want 100/100", d.ScaleBarLeftMargin, d.ScaleBarBottomMargin)
	}

	// A document without an alignment keeps the default.
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"importDefaults":{"magnificationRatio":57}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got := NewStore(path).Load()
	if got.ImportDefaults.Alignment != overlay.AlignCenter || got.ImportDefaults.MagnificationRatio != 57 {
		t.Errorf("Load() import defaults = %+v", got.ImportDefaults)
	}
}

func TestLoadCorruptReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	for _, doc := range []string{
		"{not json",
		`{"importDefaults":{"alignment":"diagonal"}}`,
		`{"scaleBarLeftMargin":"wide"}`,
	} {
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		s := NewStore(path)
		if got := s.Load(); got != Default() {
			t.Errorf("Load(%s) = %+v, want defaults", doc, got)
		}
		if _, err := s.LoadStrict(); !errors.Is(err, errors.ErrCodeSettingsParse) {
			t.Errorf("LoadStrict(%s) error = %v, want SETTINGS_PARSE", doc, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "config.json"))

	cfg := Default()
	cfg.ImportDefaults.MagnificationRatio = 92
	cfg.ImportDefaults.DestinationDirectory = "/data/out"
	cfg.ImportDefaults.Alignment = overlay.AlignRight
	cfg.ScaleBarLeftMargin = 40
	cfg.ScaleBarBottomMargin = 250
	cfg.Font.Family = "Helvetica"
	cfg.Font.AllowFallback = true
	cfg.Compositor = "fogleman"
	cfg.PreviewWidth = 800

	if err := s.Save(cfg); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(); got != cfg {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
}

func TestPartialDocumentKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{"importDefaults":{"magnificationRatio":36,"destinationDirectory":"","alignment":"center"},"scaleBarLeftMargin":10,"scaleBarBottomMargin":20}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	got := NewStore(path).Load()
	if got.ImportDefaults.MagnificationRatio != 36 || got.ImportDefaults.Alignment != overlay.AlignCenter {
		t.Errorf("import defaults = %+v", got.ImportDefaults)
	}
	if got.ScaleBarLeftMargin != 10 || got.ScaleBarBottomMargin != 20 {
		t.Errorf("margins = %d, %d", got.ScaleBarLeftMargin, got.ScaleBarBottomMargin)
	}
	if got.PreviewWidth != DefaultPreviewWidth || got.Compositor != overlay.DefaultCompositor || got.Font.Family != "Arial" {
		t.Errorf("added fields not defaulted: %+v", got)
	}
}

func TestImportDefaultsMagnification(t *testing.T) {
	if got := (ImportDefaults{MagnificationRatio: 57}).Magnification().Ratio; got != 57 {
		t.Errorf("ratio 57 resolved to %d", got)
	}
	if got := (ImportDefaults{MagnificationRatio: 58}).Magnification().Ratio; got != 11 {
		t.Errorf("unknown ratio resolved to %d, want 11", got)
	}
}

func TestSet(t *testing.T) {
	cfg := Default()
	valid := map[string]string{
		"magnification":      "240K",
		"destination":        "/out",
		"alignment":          "right",
		"marginLeft":         "5",
		"marginBottom":       "0",
		"font.family":        "DejaVu Sans",
		"font.allowFallback": "true",
		"compositor":         "FOGLEMAN",
		"previewWidth":       "256",
	}
	for k, v := range valid {
		if err := cfg.Set(k, v); err != nil {
			t.Errorf("Set(%s, %s) error = %v", k, v, err)
		}
	}
	if cfg.ImportDefaults.MagnificationRatio != 240 || cfg.Compositor != "fogleman" || !cfg.Font.AllowFallback {
		t.Errorf("cfg = %+v", cfg)
	}

	invalid := []struct {
		key, value string
		code       errors.Code
	}{
		{"magnification", "12", errors.ErrCodeInvalidMagnification},
		{"alignment", "up", errors.ErrCodeInvalidAlignment},
		{"marginLeft", "-1", errors.ErrCodeInvalidInput},
		{"previewWidth", "0", errors.ErrCodeInvalidInput},
		{"compositor", "cairo", errors.ErrCodeUnsupported},
		{"colour", "red", errors.ErrCodeInvalidInput},
	}
	for _, tt := range invalid {
		if err := cfg.Set(tt.key, tt.value); !errors.Is(err, tt.code) {
			t.Errorf("Set(%s, %s) error = %v, want %s", tt.key, tt.value, err, tt.code)
		}
	}
}

func TestDefaultPathEnv(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/custom.json")
	if p, err := DefaultPath(); err != nil || p != "/tmp/custom.json" {
		t.Errorf("DefaultPath() = %q, %v", p, err)
	}
}
