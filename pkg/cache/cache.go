// Package cache stores rendered preview images between requests.
//
// Three backends implement [Cache]:
//
//   - [NullCache]: caching disabled (--no-cache)
//   - [FileCache]: one JSON entry per key under the user cache directory
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//
// Keys are built by a [Keyer] so that every input that can change the
// rendered pixels (file identity, magnification, alignment, margins, preview
// width, compositor, font) is part of the key.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry expiry.
type Cache interface {
	// Get returns the data stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Clearer is implemented by backends that can drop every entry at once.
type Clearer interface {
	// Clear removes all entries and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}

// TTLs per entry kind.
const (
	// TTLPreview bounds how long a rendered preview is reused. Keys include
	// the source modification time, so this only limits disk growth.
	TTLPreview = 7 * 24 * time.Hour
)

// PreviewKeyOpts identifies one rendered preview.
type PreviewKeyOpts struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"mod_time"`
	Mode         string    `json:"mode"`
	Ratio        int       `json:"ratio"`
	Alignment    string    `json:"alignment"`
	MarginLeft   int       `json:"margin_left"`
	MarginBottom int       `json:"margin_bottom"`
	Width        int       `json:"width"`
	Compositor   string    `json:"compositor"`
	Font         string    `json:"font"`
}

// Keyer builds cache keys.
type Keyer interface {
	PreviewKey(opts PreviewKeyOpts) string
}

// DefaultKeyer hashes key options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PreviewKey returns "preview:<sha256 of opts>".
func (DefaultKeyer) PreviewKey(opts PreviewKeyOpts) string {
	opts.ModTime = opts.ModTime.UTC()
	return hashKey("preview", opts)
}
