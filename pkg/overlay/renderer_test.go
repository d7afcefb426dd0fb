package overlay

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/fonts"
	"github.com/matzehuels/scalebar/pkg/magnification"
)

func writeImage(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := imaging.Save(imaging.New(w, h, color.Black), path); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRenderer(t *testing.T, compositor string) *Renderer {
	t.Helper()
	fontPath := filepath.Join(t.TempDir(), "bold.ttf")
	if err := os.WriteFile(fontPath, gobold.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewCompositor(compositor)
	if err != nil {
		t.Fatal(err)
	}
	return NewRenderer(fonts.NewResolver(), fonts.Spec{Path: fontPath}, c, nil)
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r > 0xc000 && g > 0xc000 && b > 0xc000
}

func TestRenderDrawsBar(t *testing.T) {
	o, _ := magnification.Lookup(92) // 333 px bar
	for _, name := range CompositorNames() {
		t.Run(name, func(t *testing.T) {
			r := testRenderer(t, name)
			path := writeImage(t, "cell.png", 400, 300)

			src, err := r.Decode(path, 0)
			if err != nil {
				t.Fatal(err)
			}
			defer src.Close()

			out, err := r.Render(context.Background(), src, Params{
				Option:       o,
				MarginLeft:   10,
				MarginBottom: 10,
				Scale:        1,
			})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			defer out.Close()

			// Bar spans y 275..290 and x 10..343.
			if !isWhite(out.At(50, 282)) {
				t.Errorf("pixel inside bar = %v, want white", out.At(50, 282))
			}
			if isWhite(out.At(50, 295)) {
				t.Errorf("pixel below bar is white")
			}
			if isWhite(out.At(380, 282)) {
				t.Errorf("pixel right of bar is white")
			}
			if isWhite(src.At(50, 282)) {
				t.Errorf("Render() modified its source image")
			}
			if out.Width() != 400 || out.Height() != 300 {
				t.Errorf("output size = %dx%d", out.Width(), out.Height())
			}
		})
	}
}

func TestRenderCancelled(t *testing.T) {
	r := testRenderer(t, DefaultCompositor)
	path := writeImage(t, "cell.png", 64, 64)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderFile(ctx, path, Params{Option: magnification.Default()}, 0); err != context.Canceled {
		t.Errorf("RenderFile() error = %v, want context.Canceled", err)
	}
}

func TestRenderFontUnavailable(t *testing.T) {
	c, _ := NewCompositor("")
	r := NewRenderer(fonts.NewResolver(), fonts.Spec{Path: filepath.Join(t.TempDir(), "none.ttf")}, c, nil)
	path := writeImage(t, "cell.png", 64, 64)

	_, err := r.RenderFile(context.Background(), path, Params{Option: magnification.Default()}, 0)
	if !errors.Is(err, errors.ErrCodeFontUnavailable) {
		t.Errorf("RenderFile() error = %v, want FONT_UNAVAILABLE", err)
	}
}

func TestNewCompositor(t *testing.T) {
	c, err := NewCompositor("")
	if err != nil || c.Name() != DefaultCompositor {
		t.Errorf("NewCompositor(\"\") = %v, %v", c, err)
	}
	if c, err := NewCompositor("Fogleman"); err != nil || c.Name() != "fogleman" {
		t.Errorf("NewCompositor(Fogleman) = %v, %v", c, err)
	}
	if _, err := NewCompositor("cairo"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("NewCompositor(cairo) error = %v", err)
	}
}

func TestDecode(t *testing.T) {
	path := writeImage(t, "wide.png", 2048, 100)

	img, err := Decode(path, 512)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width() != 512 || img.Height() != 25 {
		t.Errorf("decoded size = %dx%d, want 512x25", img.Width(), img.Height())
	}
	if img.SourceWidth != 2048 || img.Scale() != 0.25 {
		t.Errorf("SourceWidth = %d scale %v", img.SourceWidth, img.Scale())
	}

	small, err := Decode(path, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if small.Width() != 2048 || small.Scale() != 1 {
		t.Errorf("narrow image was resized to %d", small.Width())
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Decode(filepath.Join(dir, "gone.png"), 0); !errors.Is(err, errors.ErrCodePathMissing) {
		t.Errorf("missing file error = %v, want PATH_MISSING", err)
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(bad, 0); !errors.Is(err, errors.ErrCodeDecode) {
		t.Errorf("corrupt file error = %v, want DECODE_ERROR", err)
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]imaging.Format{
		"a.jpg":  imaging.JPEG,
		"a.JPEG": imaging.JPEG,
		"a.png":  imaging.PNG,
		"a.bmp":  imaging.BMP,
		"a.tiff": imaging.PNG,
		"a":      imaging.PNG,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(32, 16, color.White)

	for _, name := range []string{"out.jpg", "out.png", "out.bmp", "nested/out.tiff"} {
		path := filepath.Join(dir, name)
		if err := EncodeFile(path, img); err != nil {
			t.Fatalf("EncodeFile(%s) error = %v", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if cfg.Width != 32 || cfg.Height != 16 {
			t.Errorf("%s: size %dx%d", name, cfg.Width, cfg.Height)
		}
		// .tiff outputs fall back to PNG.
		if name == "nested/out.tiff" && format != "png" {
			t.Errorf("%s encoded as %s, want png", name, format)
		}
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".scalebar-") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}
}
