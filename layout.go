package labelsheet

import (
	"math"
	"regexp"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// pixelsPerInch is the CSS reference resolution used for all pixel values.
const pixelsPerInch = 96.0

// Margin represents spacing around a label box in CSS pixels.
type Margin struct {
	Top    float64 `yaml:"top" mapstructure:"top"`
	Right  float64 `yaml:"right" mapstructure:"right"`
	Bottom float64 `yaml:"bottom" mapstructure:"bottom"`
	Left   float64 `yaml:"left" mapstructure:"left"`
}

// UniformMargin returns a Margin with the same value on all sides.
func UniformMargin(px float64) Margin {
	return Margin{Top: px, Right: px, Bottom: px, Left: px}
}

// Layout describes the geometry of one label sheet.
//
// Paper and label sizes are in inches. Font size, padding, borders and
// margins are CSS pixels at 96 px per inch. A nil Layout or one with zero
// sizes resolves to [DefaultLayout].
type Layout struct {
	// Name identifies the layout in logs and preset listings.
	Name string `yaml:"name" mapstructure:"name"`

	// PaperWidth and PaperHeight are the sheet size in inches.
	PaperWidth  float64 `yaml:"paper_width" mapstructure:"paper_width"`
	PaperHeight float64 `yaml:"paper_height" mapstructure:"paper_height"`

	// LabelWidth and LabelHeight are the label content size in inches,
	// excluding the label border.
	LabelWidth  float64 `yaml:"label_width" mapstructure:"label_width"`
	LabelHeight float64 `yaml:"label_height" mapstructure:"label_height"`

	// LabelsPerPage caps the labels placed on one sheet. Zero uses the
	// full capacity derived from the geometry.
	LabelsPerPage int `yaml:"labels_per_page" mapstructure:"labels_per_page"`

	FontSize   float64 `yaml:"font_size" mapstructure:"font_size"`
	FontFamily string  `yaml:"font_family" mapstructure:"font_family"`

	SheetPadding float64 `yaml:"sheet_padding" mapstructure:"sheet_padding"`
	SheetBorder  float64 `yaml:"sheet_border" mapstructure:"sheet_border"`
	LabelBorder  float64 `yaml:"label_border" mapstructure:"label_border"`
	LabelMargin  Margin  `yaml:"label_margin" mapstructure:"label_margin"`
}

// Rect is an axis-aligned box in CSS pixels relative to the sheet's
// top-left outer corner.
type Rect struct {
	X, Y, W, H float64
}

const (
	defaultFontSize   = 45
	defaultFontFamily = "Arial, sans-serif"
)

var layouts = map[string]Layout{
	"tabloid-12x18": {
		Name:          "tabloid-12x18",
		PaperWidth:    12,
		PaperHeight:   18,
		LabelWidth:    4.6,
		LabelHeight:   3.15,
		LabelsPerPage: 10,
		FontSize:      defaultFontSize,
		FontFamily:    defaultFontFamily,
		SheetPadding:  10,
		SheetBorder:   2,
		LabelBorder:   1,
		LabelMargin:   Margin{Top: 2, Right: 30, Bottom: 2, Left: 2},
	},
	"letter-2x5": {
		Name:          "letter-2x5",
		PaperWidth:    8.5,
		PaperHeight:   11,
		LabelWidth:    4,
		LabelHeight:   2,
		LabelsPerPage: 10,
		FontSize:      28,
		FontFamily:    defaultFontFamily,
		SheetPadding:  10,
		SheetBorder:   2,
		LabelBorder:   1,
		LabelMargin:   UniformMargin(2),
	},
	"a4-2x4": {
		Name:          "a4-2x4",
		PaperWidth:    mmToInches(210),
		PaperHeight:   mmToInches(297),
		LabelWidth:    mmToInches(99.1),
		LabelHeight:   mmToInches(67.7),
		LabelsPerPage: 8,
		FontSize:      32,
		FontFamily:    defaultFontFamily,
		SheetPadding:  10,
		SheetBorder:   2,
		LabelBorder:   1,
		LabelMargin:   UniformMargin(2),
	},
}

// DefaultLayoutName is the preset used when no layout is configured.
const DefaultLayoutName = "tabloid-12x18"

// DefaultLayout returns the 12x18 inch sheet of ten 4.6x3.15 inch labels.
func DefaultLayout() Layout {
	return layouts[DefaultLayoutName]
}

// LookupLayout returns the preset registered under name.
func LookupLayout(name string) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return Layout{}, errors.Wrapf(ErrUnknownLayout, "%q", name)
	}
	return l, nil
}

// LayoutNames returns the preset names in sorted order.
func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolved returns a Layout with zero sizes replaced by defaults.
func (l *Layout) resolved() Layout {
	d := DefaultLayout()
	if l == nil {
		return d
	}
	r := *l
	if r.PaperWidth == 0 && r.PaperHeight == 0 {
		r.PaperWidth, r.PaperHeight = d.PaperWidth, d.PaperHeight
	}
	if r.LabelWidth == 0 && r.LabelHeight == 0 {
		r.LabelWidth, r.LabelHeight = d.LabelWidth, d.LabelHeight
	}
	if r.FontSize == 0 {
		r.FontSize = d.FontSize
	}
	if r.FontFamily == "" {
		r.FontFamily = d.FontFamily
	}
	return r
}

// mmToInches converts millimetres to inches.
func mmToInches(mm float64) float64 {
	return mm / 25.4
}

// inchesToPixels converts inches to CSS pixels.
func inchesToPixels(in float64) float64 {
	return in * pixelsPerInch
}

// PaperPixels returns the sheet size in CSS pixels.
func (l Layout) PaperPixels() (width, height float64) {
	return inchesToPixels(l.PaperWidth), inchesToPixels(l.PaperHeight)
}

// LabelPixels returns the size of one label box including its border.
func (l Layout) LabelPixels() (width, height float64) {
	return inchesToPixels(l.LabelWidth) + 2*l.LabelBorder,
		inchesToPixels(l.LabelHeight) + 2*l.LabelBorder
}

// contentBox returns the area inside the sheet border and padding.
func (l Layout) contentBox() Rect {
	w, h := l.PaperPixels()
	inset := l.SheetBorder + l.SheetPadding
	return Rect{X: inset, Y: inset, W: w - 2*inset, H: h - 2*inset}
}

// cell returns the size of one label including its margins.
func (l Layout) cell() (width, height float64) {
	w, h := l.LabelPixels()
	return w + l.LabelMargin.Left + l.LabelMargin.Right,
		h + l.LabelMargin.Top + l.LabelMargin.Bottom
}

// fit returns how many spans of size span fit into total.
func fit(total, span float64) int {
	if span <= 0 || total <= 0 {
		return 0
	}
	return int(math.Floor(total/span + 1e-9))
}

// Columns returns how many labels fit side by side on the sheet.
func (l Layout) Columns() int {
	w, _ := l.cell()
	return fit(l.contentBox().W, w)
}

// Rows returns how many label rows fit on the sheet.
func (l Layout) Rows() int {
	_, h := l.cell()
	return fit(l.contentBox().H, h)
}

// Capacity returns the number of labels the geometry can hold.
func (l Layout) Capacity() int {
	return l.Columns() * l.Rows()
}

// PerPage returns the page capacity used for pagination.
func (l Layout) PerPage() int {
	if l.LabelsPerPage > 0 {
		return l.LabelsPerPage
	}
	return l.Capacity()
}

// Place returns the border-box rectangles of the first n labels on a sheet.
// Rows fill left to right and each row is centred horizontally. Spare
// height is shared equally between the rows and every label is centred
// vertically in its row, as a wrapping flex container with stretched lines
// lays it out. Labels beyond [Layout.Capacity] are not placed.
func (l Layout) Place(n int) []Rect {
	cols := l.Columns()
	if n <= 0 || cols == 0 {
		return nil
	}
	if c := l.Capacity(); n > c {
		n = c
	}

	content := l.contentBox()
	cw, ch := l.cell()
	lw, lh := l.LabelPixels()
	rows := (n + cols - 1) / cols
	line := ch
	if spare := content.H - float64(rows)*ch; spare > 0 {
		line += spare / float64(rows)
	}

	rects := make([]Rect, 0, n)
	for row := 0; row < rows; row++ {
		inRow := cols
		if rest := n - row*cols; rest < cols {
			inRow = rest
		}
		left := content.X + (content.W-float64(inRow)*cw)/2
		y := content.Y + float64(row)*line + (line-ch)/2 + l.LabelMargin.Top
		for col := 0; col < inRow; col++ {
			x := left + float64(col)*cw + l.LabelMargin.Left
			rects = append(rects, Rect{X: x, Y: y, W: lw, H: lh})
		}
	}
	return rects
}

// fits reports a page holding more labels than the sheet can place.
func (l Layout) fits(pg Page) error {
	if c := l.Capacity(); len(pg.Labels) > c {
		return errors.Wrapf(ErrCapacityExceeded, "page %d holds %d labels, the sheet fits %d",
			pg.Index+1, len(pg.Labels), c)
	}
	return nil
}

var fontFamilyPattern = regexp.MustCompile(`^[A-Za-z0-9 ,'"-]+$`)

// Validate reports every geometry violation in the layout.
func (l Layout) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...interface{}) {
		result = multierror.Append(result, errors.Errorf(format, args...))
	}

	if l.PaperWidth <= 0 || l.PaperHeight <= 0 {
		add("paper size %gx%g in must be positive", l.PaperWidth, l.PaperHeight)
	}
	if l.LabelWidth <= 0 || l.LabelHeight <= 0 {
		add("label size %gx%g in must be positive", l.LabelWidth, l.LabelHeight)
	}
	if l.SheetPadding < 0 || l.SheetBorder < 0 || l.LabelBorder < 0 {
		add("padding and borders must not be negative")
	}
	if m := l.LabelMargin; m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		add("label margins must not be negative")
	}
	if l.FontSize <= 0 {
		add("font size %gpx must be positive", l.FontSize)
	}
	if !fontFamilyPattern.MatchString(l.FontFamily) {
		add("font family %q contains unsupported characters", l.FontFamily)
	}
	if l.LabelsPerPage < 0 {
		add("labels per page %d must not be negative", l.LabelsPerPage)
	}

	if result.ErrorOrNil() == nil {
		capacity := l.Capacity()
		switch {
		case capacity == 0:
			add("label %gx%g in does not fit on %gx%g in paper",
				l.LabelWidth, l.LabelHeight, l.PaperWidth, l.PaperHeight)
		case l.LabelsPerPage > capacity:
			result = multierror.Append(result, errors.Wrapf(ErrCapacityExceeded,
				"%d requested, %d (%d columns x %d rows) fit", l.LabelsPerPage, capacity, l.Columns(), l.Rows()))
		}
	}
	return result.ErrorOrNil()
}
