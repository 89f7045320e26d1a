package labelsheet

import (
	"fmt"
	"html/template"
	"io"

	"github.com/pkg/errors"
)

// sheetTemplate is shared by the preview and the export target, so both
// lay a page out from the same markup and the same Layout.Place boxes.
const sheetTemplate = `
{{- define "style" -}}
<style>
.sheet {
  position: relative;
  box-sizing: border-box;
  width: {{px .Width}};
  height: {{px .Height}};
  border: {{px .SheetBorder}} solid #000;
  background: #fff;
  overflow: hidden;
}
.label {
  position: absolute;
  box-sizing: border-box;
  display: flex;
  align-items: center;
  justify-content: center;
  text-align: center;
  overflow: hidden;
  overflow-wrap: anywhere;
  line-height: 1.2;
  border: {{px .LabelBorder}} solid #000;
  font-size: {{px .FontSize}};
  font-family: {{.FontFamily}};
  color: #000;
}
</style>
{{- end -}}

{{- define "sheet" -}}
<div class="sheet" data-page="{{.Number}}">
{{- range .Labels}}
  <div class="label" style="left: {{px .X}}; top: {{px .Y}}; width: {{px .W}}; height: {{px .H}};">{{.Text}}</div>
{{- end}}
</div>
{{- end -}}

{{- define "page" -}}
<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{template "style" .Style}}
<style>html, body { margin: 0; padding: 0; background: #fff; }</style>
</head>
<body>
{{template "sheet" .Sheet}}
</body>
</html>
{{- end -}}

{{- define "preview" -}}
<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{template "style" .Style}}
<style>
body { margin: 0; padding: 0; background: #eee; }
.sheet { margin: 20px auto; }
</style>
</head>
<body>
{{- range .Sheets}}
{{template "sheet" .}}
{{- end}}
</body>
</html>
{{- end -}}
`

// Renderer lays pages out as HTML label grids.
type Renderer struct {
	layout Layout
	tmpl   *template.Template
}

type styleData struct {
	Width, Height float64
	SheetBorder   float64
	LabelBorder   float64
	FontSize      float64
	FontFamily    template.CSS
}

type labelData struct {
	X, Y, W, H float64
	Text       string
}

type sheetData struct {
	Number int
	Labels []labelData
}

// NewRenderer returns a Renderer for the layout. If layout is nil,
// [DefaultLayout] is used.
func NewRenderer(layout *Layout) (*Renderer, error) {
	l := layout.resolved()
	if err := l.Validate(); err != nil {
		return nil, errors.Wrap(err, "labelsheet: invalid layout")
	}
	tmpl, err := template.New("labelsheet").Funcs(template.FuncMap{
		"px": func(v float64) template.CSS {
			return template.CSS(fmt.Sprintf("%.2fpx", v))
		},
	}).Parse(sheetTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "labelsheet: parsing sheet template")
	}
	return &Renderer{layout: l, tmpl: tmpl}, nil
}

// Layout returns the resolved layout the renderer draws with.
func (r *Renderer) Layout() Layout {
	return r.layout
}

// RenderPage writes a standalone document holding exactly one sheet at the
// top-left corner of the viewport. This is the export capture target.
func (r *Renderer) RenderPage(w io.Writer, pg Page) error {
	sheet, err := r.sheet(pg)
	if err != nil {
		return err
	}
	data := struct {
		Style styleData
		Sheet sheetData
	}{r.style(), sheet}
	if err := r.tmpl.ExecuteTemplate(w, "page", data); err != nil {
		return errors.Wrapf(err, "labelsheet: rendering page %d", pg.Index+1)
	}
	return nil
}

// RenderPreview writes one document with every page stacked vertically,
// for on-screen review before export.
func (r *Renderer) RenderPreview(w io.Writer, pages []Page) error {
	sheets := make([]sheetData, len(pages))
	for i, pg := range pages {
		sheet, err := r.sheet(pg)
		if err != nil {
			return err
		}
		sheets[i] = sheet
	}
	data := struct {
		Title  string
		Style  styleData
		Sheets []sheetData
	}{"Label sheets", r.style(), sheets}
	if err := r.tmpl.ExecuteTemplate(w, "preview", data); err != nil {
		return errors.Wrap(err, "labelsheet: rendering preview")
	}
	return nil
}

func (r *Renderer) style() styleData {
	w, h := r.layout.PaperPixels()
	return styleData{
		Width:       w,
		Height:      h,
		SheetBorder: r.layout.SheetBorder,
		LabelBorder: r.layout.LabelBorder,
		FontSize:    r.layout.FontSize,
		FontFamily:  template.CSS(r.layout.FontFamily),
	}
}

// sheet converts placed boxes to coordinates relative to the sheet's
// padding edge, which is what absolute positioning uses.
func (r *Renderer) sheet(pg Page) (sheetData, error) {
	if err := r.layout.fits(pg); err != nil {
		return sheetData{}, errors.Wrap(err, "labelsheet: rendering")
	}
	rects := r.layout.Place(len(pg.Labels))
	labels := make([]labelData, len(rects))
	for i, rc := range rects {
		labels[i] = labelData{
			X:    rc.X - r.layout.SheetBorder,
			Y:    rc.Y - r.layout.SheetBorder,
			W:    rc.W,
			H:    rc.H,
			Text: pg.Labels[i],
		}
	}
	return sheetData{Number: pg.Index + 1, Labels: labels}, nil
}
