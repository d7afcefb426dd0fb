package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"time"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/scalebar/pkg/cache"
	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/observability"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/task"
)

// PreviewRequest describes one preview.
type PreviewRequest struct {
	ImagePath    string               `json:"imagePath"`
	Option       magnification.Option `json:"magnification"`
	Alignment    overlay.Alignment    `json:"alignment"`
	MarginLeft   int                  `json:"marginLeft"`
	MarginBottom int                  `json:"marginBottom"`
	Mode         Mode                 `json:"mode"`

	// Width bounds the decode width; <= 0 means DefaultPreviewWidth.
	Width int `json:"width"`
}

// NewPreviewRequest builds a request for t.
func NewPreviewRequest(t task.Task, marginLeft, marginBottom int, mode Mode, width int) PreviewRequest {
	return PreviewRequest{
		ImagePath:    t.ImagePath,
		Option:       t.Magnification,
		Alignment:    t.Alignment,
		MarginLeft:   marginLeft,
		MarginBottom: marginBottom,
		Mode:         mode,
		Width:        width,
	}
}

// Preview is an encoded preview image.
type Preview struct {
	// Data holds PNG bytes.
	Data   []byte
	Width  int
	Height int

	// Cached is true when Data came from the cache.
	Cached bool
}

// Preview renders a bounded-size PNG of req.ImagePath, with or without the
// overlay depending on req.Mode. Results are cached by file identity and
// every setting that changes the pixels.
//
// ctx is checked after decode, after composite and after encoding; a
// cancelled preview returns ctx.Err() and never touches the cache.
func (r *Runner) Preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	start := time.Now()
	hooks := observability.Preview()
	hooks.OnPreviewStart(ctx, req.ImagePath, string(req.Mode))

	p, err := r.preview(ctx, req)

	cached := p != nil && p.Cached
	hooks.OnPreviewComplete(ctx, req.ImagePath, string(req.Mode), cached, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("rendered preview",
		"image", req.ImagePath,
		"mode", req.Mode,
		"cached", cached,
		"duration", time.Since(start))
	return p, nil
}

func (r *Runner) preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	if req.Mode == "" {
		req.Mode = ModeProcessed
	}
	if req.Width <= 0 {
		req.Width = DefaultPreviewWidth
	}

	info, err := os.Stat(req.ImagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodePathMissing, err, "%s no longer exists", req.ImagePath)
		}
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "stat %s", req.ImagePath)
	}

	key := r.Keyer.PreviewKey(r.previewKeyOpts(req, info))
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			observability.Cache().OnCacheHit(ctx, "preview")
			return &Preview{Data: data, Width: cfg.Width, Height: cfg.Height, Cached: true}, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "preview")

	src, err := r.Renderer.Decode(req.ImagePath, req.Width)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := src
	if req.Mode == ModeProcessed {
		out, err := r.Renderer.Render(ctx, src, overlay.Params{
			Option:       req.Option,
			Alignment:    req.Alignment,
			MarginLeft:   req.MarginLeft,
			MarginBottom: req.MarginBottom,
		})
		if err != nil {
			return nil, err
		}
		defer out.Close()
		img = out
	}

	var buf bytes.Buffer
	if err := overlay.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := buf.Bytes()
	if err := r.Cache.Set(ctx, key, data, cache.TTLPreview); err != nil {
		r.Logger.Debug("preview cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "preview", len(data))
	}

	return &Preview{Data: data, Width: img.Width(), Height: img.Height()}, nil
}

func (r *Runner) previewKeyOpts(req PreviewRequest, info os.FileInfo) cache.PreviewKeyOpts {
	opts := cache.PreviewKeyOpts{
		Path:    req.ImagePath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    string(req.Mode),
		Width:   req.Width,
	}
	if req.Mode == ModeOriginal {
		return opts
	}

	spec := r.Renderer.FontSpec
	opts.Ratio = req.Option.Ratio
	opts.Alignment = req.Alignment.String()
	opts.MarginLeft = req.MarginLeft
	opts.MarginBottom = req.MarginBottom
	opts.Compositor = r.Renderer.Compositor.Name()
	opts.Font = fmt.Sprintf("%s|%s|%t", spec.Family, spec.Path, spec.AllowFallback)
	return opts
}
