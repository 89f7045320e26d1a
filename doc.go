// Package labelsheet lays text labels out on printable sheets and exports
// the sheets as a PDF with one raster image per page.
//
// # Labels
//
// Read a delimited text file into a flat label list. Every cell of every
// row becomes one label, in row-major order:
//
//	labels, err := labelsheet.ReadLabelsFile("labels.csv", nil)
//
// Use [ReadOptions] to force a delimiter or decode a legacy charset:
//
//	labels, err := labelsheet.ReadLabels(r, &labelsheet.ReadOptions{
//	    Delimiter: ';',
//	    Encoding:  "windows-1252",
//	})
//
// # Layouts
//
// A [Layout] fixes paper size, label size, font and spacing. Presets are
// available by name:
//
//	layout, err := labelsheet.LookupLayout("letter-2x5")
//
// [Paginate] splits labels into pages of [Layout.PerPage] labels, and
// [Layout.Place] positions them on a sheet.
//
// # Rendering and export
//
// A [Rasterizer] turns a page into a PNG. [BrowserRasterizer] captures the
// HTML sheet from [Renderer] with headless Chrome; [NativeRasterizer]
// paints the same geometry in pure Go:
//
//	r, err := labelsheet.NewBrowserRasterizer(&layout, labelsheet.WithNoSandbox())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	exp, err := labelsheet.NewExporter(&layout, r,
//	    labelsheet.WithProgress(func(p labelsheet.Progress) {
//	        fmt.Printf("%d%%\n", p.Percent)
//	    }),
//	)
//	if err := exp.Load(labels); err != nil {
//	    log.Fatal(err)
//	}
//	res, err := exp.Export(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res.WriteToFile(res.Filename(), 0o644)
//
// Chrome or Chromium must be available in PATH, or use [WithAutoDownload].
package labelsheet
