package errors

import (
	"testing"
)

func TestValidateImagePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr Code
	}{
		{"jpg", "/data/sample.jpg", ""},
		{"jpeg upper", "/data/SAMPLE.JPEG", ""},
		{"png", "relative/grid.png", ""},
		{"bmp", "scan.bmp", ""},
		{"tiff", "stack.tiff", ""},

		{"gif", "anim.gif", ErrCodeInvalidExtension},
		{"tif short form", "stack.tif", ErrCodeInvalidExtension},
		{"no extension", "README", ErrCodeInvalidExtension},
		{"empty", "", ErrCodeInvalidPath},
		{"null byte", "a\x00.png", ErrCodeInvalidPath},
		{"control char", "a\n.png", ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImagePath(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateImagePath(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			if !Is(err, tt.wantErr) {
				t.Errorf("ValidateImagePath(%q) = %v, want code %s", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestIsImageExtension(t *testing.T) {
	for _, ext := range ImageExtensions {
		if !IsImageExtension(ext) {
			t.Errorf("IsImageExtension(%q) = false", ext)
		}
	}
	if IsImageExtension(".webp") {
		t.Error("IsImageExtension(.webp) = true, want false")
	}
}
