package labelsheet

import (
	"context"
	"image"
	"image/draw"
	"math"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// lineHeight matches the line-height of the HTML sheet template.
const lineHeight = 1.2

// NativeRasterizer paints pages in pure Go without a browser. It uses the
// same Layout.Place geometry as the HTML renderer and the Go Regular font.
//
// A NativeRasterizer is safe for concurrent use, though calls are
// serialised on its single canvas.
type NativeRasterizer struct {
	layout Layout
	scale  float64
	face   font.Face

	mu     sync.Mutex
	canvas *image.RGBA
}

// NewNativeRasterizer returns a rasterizer drawing at scale device pixels
// per CSS pixel. If layout is nil, [DefaultLayout] is used; a scale of
// zero or less uses [DefaultScale].
func NewNativeRasterizer(layout *Layout, scale float64) (*NativeRasterizer, error) {
	l := layout.resolved()
	if err := l.Validate(); err != nil {
		return nil, errors.Wrap(err, "labelsheet: invalid layout")
	}
	if scale <= 0 {
		scale = DefaultScale
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "labelsheet: parsing font")
	}
	// At 72 DPI one point is one pixel, so Size is the pixel font size.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    l.FontSize * scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "labelsheet: creating font face")
	}

	return &NativeRasterizer{layout: l, scale: scale, face: face}, nil
}

// Rasterize paints pg onto the canvas and encodes it as PNG.
func (n *NativeRasterizer) Rasterize(ctx context.Context, pg Page) (*Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := n.layout.fits(pg); err != nil {
		return nil, errors.Wrap(err, "labelsheet: rasterizing")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	w, h := n.layout.PaperPixels()
	bounds := image.Rect(0, 0, n.px(w), n.px(h))
	if n.canvas == nil || n.canvas.Bounds() != bounds {
		n.canvas = image.NewRGBA(bounds)
	}
	draw.Draw(n.canvas, bounds, image.White, image.Point{}, draw.Src)

	n.stroke(Rect{W: w, H: h}, n.layout.SheetBorder)
	for i, rc := range n.layout.Place(len(pg.Labels)) {
		n.stroke(rc, n.layout.LabelBorder)
		n.text(rc, pg.Labels[i])
	}
	return encodeRaster(n.canvas)
}

// Layout returns the resolved layout the rasterizer draws with.
func (n *NativeRasterizer) Layout() Layout {
	return n.layout
}

// Clear drops the canvas.
func (n *NativeRasterizer) Clear(context.Context) error {
	n.mu.Lock()
	n.canvas = nil
	n.mu.Unlock()
	return nil
}

// px converts CSS pixels to device pixels.
func (n *NativeRasterizer) px(v float64) int {
	return int(math.Round(v * n.scale))
}

func (n *NativeRasterizer) bounds(rc Rect) image.Rectangle {
	return image.Rect(n.px(rc.X), n.px(rc.Y), n.px(rc.X+rc.W), n.px(rc.Y+rc.H))
}

// stroke draws a border of width CSS pixels inside rc.
func (n *NativeRasterizer) stroke(rc Rect, width float64) {
	if width <= 0 {
		return
	}
	r := n.bounds(rc)
	t := n.px(width)
	if t < 1 {
		t = 1
	}
	for _, band := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(n.canvas, band, image.Black, image.Point{}, draw.Src)
	}
}

// text draws s wrapped and centred inside the content area of rc.
func (n *NativeRasterizer) text(rc Rect, s string) {
	b := n.layout.LabelBorder
	inner := n.bounds(Rect{X: rc.X + b, Y: rc.Y + b, W: rc.W - 2*b, H: rc.H - 2*b})
	if inner.Empty() {
		return
	}
	lines := n.wrap(s, inner.Dx())
	if len(lines) == 0 {
		return
	}

	dst, ok := n.canvas.SubImage(inner).(*image.RGBA)
	if !ok {
		return
	}
	m := n.face.Metrics()
	glyph := (m.Ascent + m.Descent).Ceil()
	step := n.px(n.layout.FontSize * lineHeight)
	top := inner.Min.Y + (inner.Dy()-len(lines)*step)/2

	d := font.Drawer{Dst: dst, Src: image.Black, Face: n.face}
	for i, line := range lines {
		baseline := top + i*step + (step-glyph)/2 + m.Ascent.Ceil()
		x := inner.Min.X + (inner.Dx()-d.MeasureString(line).Ceil())/2
		d.Dot = fixed.P(x, baseline)
		d.DrawString(line)
	}
}

// wrap breaks s into lines no wider than width pixels, splitting between
// words and, for words wider than a line, between characters.
func (n *NativeRasterizer) wrap(s string, width int) []string {
	fits := func(t string) bool {
		return font.MeasureString(n.face, t).Ceil() <= width
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(s) {
		for _, piece := range n.split(word, fits) {
			switch {
			case current == "":
				current = piece
			case fits(current + " " + piece):
				current += " " + piece
			default:
				lines = append(lines, current)
				current = piece
			}
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// split cuts word into runs of characters that each fit on a line.
func (n *NativeRasterizer) split(word string, fits func(string) bool) []string {
	if fits(word) {
		return []string{word}
	}
	var pieces []string
	var run []rune
	for _, r := range word {
		if len(run) > 0 && !fits(string(append(run, r))) {
			pieces = append(pieces, string(run))
			run = run[:0]
		}
		run = append(run, r)
	}
	if len(run) > 0 {
		pieces = append(pieces, string(run))
	}
	return pieces
}
