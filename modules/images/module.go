// Package images re-encodes raster images with tighter settings.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/registry"
)

// DefaultQuality is the JPEG quality used without a `quality` option.
const DefaultQuality = 80

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the transform with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("optimize_images", registry.FilterExt([]string{".jpg", ".jpeg", ".png", ".gif"}, Optimize))
}

// Optimize decodes an image, downsizes it to the `max_width` option when
// it is wider, and encodes it again. The original bytes are kept when the
// re-encoded image is not smaller and was not resized.
func Optimize(ctx context.Context, b *registry.Batch, f *registry.File) error {
	quality, err := intOption(b, "quality", DefaultQuality)
	if err != nil {
		return err
	}
	maxWidth, err := intOption(b, "max_width", 0)
	if err != nil {
		return err
	}

	format, err := imaging.FormatFromFilename(f.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	img, err := imaging.Decode(bytes.NewReader(f.Content), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}

	resized := false
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
		resized = true
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, img, format,
		imaging.JPEGQuality(quality),
		imaging.PNGCompressionLevel(png.BestCompression),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}

	if !resized && buf.Len() >= len(f.Content) {
		ctxlog.FromContext(ctx).Debug("Image already optimal.", "file", f.Path)
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Optimized image.", "file", f.Path, "before", len(f.Content), "after", buf.Len())
	f.Content = buf.Bytes()
	return nil
}

func intOption(b *registry.Batch, key string, def int) (int, error) {
	raw := b.Option(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("option %s: invalid value %q", key, raw)
	}
	return n, nil
}
