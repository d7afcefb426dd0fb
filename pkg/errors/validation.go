package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ImageExtensions lists the file extensions accepted on import, in the order
// they are offered by file pickers.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"}

// IsImageExtension reports whether ext (with leading dot) is an accepted
// import extension. The comparison is case-insensitive.
func IsImageExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ValidateImagePath checks that path names a file with an accepted image
// extension. It does not touch the file system.
func ValidateImagePath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return New(ErrCodeInvalidExtension, "%s has no file extension", filepath.Base(path))
	}
	if !IsImageExtension(ext) {
		return New(ErrCodeInvalidExtension, "%s: unsupported image type %q (allowed: %s)",
			filepath.Base(path), ext, strings.Join(ImageExtensions, " "))
	}
	return nil
}

// ValidatePath validates a local file path for basic sanity.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
