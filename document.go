package labelsheet

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

// Document assembles rasterized sheets into a PDF, one image per page.
//
// A new Document has no pages. Each [Document.AppendPage] explicitly
// starts a page sized to the paper and fills it with the raster.
type Document struct {
	layout Layout
	pdf    *fpdf.Fpdf
	pages  int
}

// NewDocument returns an empty document with pages the size of the
// layout's paper. If layout is nil, [DefaultLayout] is used.
func NewDocument(layout *Layout) *Document {
	l := layout.resolved()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           fpdf.SizeType{Wd: l.PaperWidth, Ht: l.PaperHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("labelsheet", true)
	pdf.SetTitle("Labels", true)
	return &Document{layout: l, pdf: pdf}
}

// SetCreationDate fixes the document's creation and modification dates,
// which makes the output reproducible.
func (d *Document) SetCreationDate(t time.Time) {
	d.pdf.SetCreationDate(t)
	d.pdf.SetModificationDate(t)
}

// AppendPage adds a page holding r scaled to the full paper size.
func (d *Document) AppendPage(r *Raster) error {
	if r == nil || len(r.PNG) == 0 {
		return errors.New("labelsheet: empty raster")
	}
	if err := d.pdf.Error(); err != nil {
		return errors.Wrap(err, "labelsheet: document")
	}

	name := fmt.Sprintf("page-%d", d.pages+1)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.AddPage()
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(r.PNG))
	d.pdf.ImageOptions(name, 0, 0, d.layout.PaperWidth, d.layout.PaperHeight, false, opts, 0, "")
	if err := d.pdf.Error(); err != nil {
		return errors.Wrapf(err, "labelsheet: adding page %d", d.pages+1)
	}
	d.pages++
	return nil
}

// Pages returns the number of pages appended so far.
func (d *Document) Pages() int {
	return d.pages
}

// Finish writes out the document. A document without pages cannot be
// finished.
func (d *Document) Finish() (*Result, error) {
	if d.pages == 0 {
		return nil, ErrEmptyDocument
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "labelsheet: writing document")
	}
	return &Result{data: buf.Bytes(), pages: d.pages}, nil
}
