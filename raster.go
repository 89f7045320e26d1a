package labelsheet

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/pkg/errors"
)

// DefaultScale is the raster resolution multiplier over CSS pixels.
const DefaultScale = 2.0

// Raster is one captured sheet encoded as PNG.
type Raster struct {
	PNG    []byte
	Width  int // pixels
	Height int // pixels
}

// Rasterizer turns a page into a fixed-size raster image.
//
// Implementations own a single off-screen render target that is replaced
// on every call, so a Rasterizer must not be used for two pages at once.
type Rasterizer interface {
	// Rasterize renders pg into the off-screen target, captures it at the
	// configured scale and encodes the capture.
	Rasterize(ctx context.Context, pg Page) (*Raster, error)

	// Clear empties the off-screen target.
	Clear(ctx context.Context) error

	// Layout returns the layout pages are drawn with.
	Layout() Layout
}

// newRaster wraps PNG bytes, reading the pixel size from the header.
func newRaster(data []byte) (*Raster, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "labelsheet: decoding captured image")
	}
	return &Raster{PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}

// encodeRaster compresses img as PNG.
func encodeRaster(img image.Image) (*Raster, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "labelsheet: encoding image")
	}
	b := img.Bounds()
	return &Raster{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
