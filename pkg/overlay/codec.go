package overlay

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/matzehuels/scalebar/pkg/errors"
)

// JPEGQuality is the quality used for JPEG outputs.
const JPEGQuality = 95

// Image is a decoded raster owned by the caller. Close releases the pixel
// buffer; the image must not be used afterwards.
type Image struct {
	image.Image

	// SourceWidth and SourceHeight are the dimensions of the stored file.
	// They differ from Bounds() when the image was decoded at a reduced
	// size.
	SourceWidth  int
	SourceHeight int
}

// Close releases the pixel buffer. It is safe to call more than once.
func (i *Image) Close() error {
	if i != nil {
		i.Image = nil
	}
	return nil
}

// Width returns the decoded width in pixels.
func (i *Image) Width() int { return i.Bounds().Dx() }

// Height returns the decoded height in pixels.
func (i *Image) Height() int { return i.Bounds().Dy() }

// Scale returns the render scale of the decoded image relative to the stored
// file.
func (i *Image) Scale() float64 {
	return RenderScale(i.Width(), i.SourceWidth)
}

// Decode reads and decodes the image at path. A positive targetWidth
// downsizes wider images to that width, keeping the aspect ratio.
//
// A missing file yields PATH_MISSING; anything the codecs reject yields
// DECODE_ERROR.
func Decode(path string, targetWidth int) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodePathMissing, err, "%s no longer exists", filepath.Base(path))
		}
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "open %s", filepath.Base(path))
	}
	defer f.Close()

	img, err := decode(f, targetWidth)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", filepath.Base(path))
	}
	return img, nil
}

// DecodeReader decodes an image from r. See Decode for targetWidth.
func DecodeReader(r io.Reader, targetWidth int) (*Image, error) {
	img, err := decode(r, targetWidth)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode image")
	}
	return img, nil
}

func decode(r io.Reader, targetWidth int) (*Image, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	out := &Image{Image: src, SourceWidth: b.Dx(), SourceHeight: b.Dy()}
	if targetWidth > 0 && b.Dx() > targetWidth {
		out.Image = imaging.Resize(src, targetWidth, 0, imaging.Lanczos)
	}
	return out, nil
}

// Probe returns the stored dimensions of the image at path without decoding
// its pixels.
func Probe(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, errors.Wrap(errors.ErrCodePathMissing, err, "%s no longer exists", filepath.Base(path))
		}
		return 0, 0, errors.Wrap(errors.ErrCodeDecode, err, "open %s", filepath.Base(path))
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeDecode, err, "read header of %s", filepath.Base(path))
	}
	return cfg.Width, cfg.Height, nil
}

// FormatForPath picks the output format from the extension of path:
// .jpg/.jpeg → JPEG, .png → PNG, .bmp → BMP, anything else → PNG.
func FormatForPath(path string) imaging.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return imaging.JPEG
	case ".bmp":
		return imaging.BMP
	default:
		return imaging.PNG
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format imaging.Format) error {
	if err := imaging.Encode(w, img, format, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "encode %s", format)
	}
	return nil
}

// EncodeFile writes img to path, choosing the format from its extension.
// The file is written to a temporary name in the same directory and renamed
// into place, so a failed encode never leaves a truncated output behind.
func EncodeFile(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "create output directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".scalebar-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "create %s", filepath.Base(path))
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, img, FormatForPath(path)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "write %s", filepath.Base(path))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "write %s", filepath.Base(path))
	}
	return nil
}
