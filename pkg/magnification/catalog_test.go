package magnification

import (
	"math"
	"testing"

	"github.com/matzehuels/scalebar/pkg/errors"
)

func TestPixelLength(t *testing.T) {
	tests := []struct {
		ratio       int
		pixelLength float64
		barLength   float64
	}{
		{11, 75.1880, 375.9398},
		{36, 252.5253, 252.5253},
		{57, 400.0, 400.0},
		{92, 666.6667, 333.3333},
		{240, 1724.1379, 862.0690},
	}

	for _, tt := range tests {
		o, ok := Lookup(tt.ratio)
		if !ok {
			t.Fatalf("Lookup(%d) missing", tt.ratio)
		}
		if got := o.PixelLength(); math.Abs(got-tt.pixelLength) > 1e-3 {
			t.Errorf("%s PixelLength() = %.4f, want %.4f", o, got, tt.pixelLength)
		}
		if got := o.BarLength(); math.Abs(got-tt.barLength) > 1e-3 {
			t.Errorf("%s BarLength() = %.4f, want %.4f", o, got, tt.barLength)
		}
	}
}

func TestCatalogFormulas(t *testing.T) {
	for _, o := range All() {
		want := 100 / (0.1 * o.PixelsPerUnit)
		if o.PixelLength() != want {
			t.Errorf("%s PixelLength() = %v, want %v", o, o.PixelLength(), want)
		}
		if o.BarLength() != want*float64(o.ScaleBarNanometers)/100 {
			t.Errorf("%s BarLength() mismatch", o)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Ratio = 999
	if Default().Ratio != 11 {
		t.Fatal("mutating All() result changed the catalog")
	}
	if len(all) != 10 {
		t.Errorf("len(All()) = %d, want 10", len(all))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"11", 11, false},
		{"36K", 36, false},
		{" 240k ", 240, false},
		{"12", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, errors.ErrCodeInvalidMagnification) {
				t.Errorf("Parse(%q) error = %v, want INVALID_MAGNIFICATION", tt.in, err)
			}
			continue
		}
		if err != nil || got.Ratio != tt.want {
			t.Errorf("Parse(%q) = %v, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestLookupOrDefault(t *testing.T) {
	if got := LookupOrDefault(73); got.Ratio != 73 {
		t.Errorf("LookupOrDefault(73) = %v", got)
	}
	if got := LookupOrDefault(1); got != Default() {
		t.Errorf("LookupOrDefault(1) = %v, want default", got)
	}
}

func TestCanonical(t *testing.T) {
	o := Default()
	if !Canonical(o) {
		t.Error("catalog entry should be canonical")
	}
	o.PixelsPerUnit = 1
	if Canonical(o) {
		t.Error("modified entry should not be canonical")
	}
}

func TestLabels(t *testing.T) {
	o, _ := Lookup(150)
	if o.Label() != "50 nm" {
		t.Errorf("Label() = %q", o.Label())
	}
	if o.DisplayText() != "150K" {
		t.Errorf("DisplayText() = %q", o.DisplayText())
	}
}
