package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/porticus-lab/labelsheet"
)

type previewOptions struct {
	output string
	format string
	pages  string
}

func previewCmd(a *app) *cobra.Command {
	var opts previewOptions
	cmd := &cobra.Command{
		Use:   "preview <file.csv>",
		Short: "Show label sheets as HTML or PNG images without exporting",
		Long: `Lays the labels out the same way export does and writes either one HTML
document with every selected sheet stacked vertically, or one PNG per sheet.

Pages are selected with --pages, e.g. "2", "1-3" or "1,4".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.preview(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output path; "-" writes HTML to stdout (default preview.html, or preview-NNN.png)`)
	cmd.Flags().StringVar(&opts.format, "format", "html", "preview format: html or png")
	cmd.Flags().StringVarP(&opts.pages, "pages", "p", "", "pages to include (default all)")
	return cmd
}

func (a *app) preview(cmd *cobra.Command, input string, opts previewOptions) error {
	layout, err := a.cfg.ResolveLayout()
	if err != nil {
		return err
	}
	readOpts, err := a.cfg.Input.ReadOptions()
	if err != nil {
		return err
	}
	labels, err := readLabels(input, readOpts)
	if err != nil {
		return err
	}
	all, err := labelsheet.Paginate(labels, layout.PerPage())
	if err != nil {
		return err
	}
	indices, err := parsePageRange(opts.pages, len(all))
	if err != nil {
		return errors.Wrapf(err, "invalid page range %q", opts.pages)
	}
	pages := make([]labelsheet.Page, 0, len(indices))
	for _, i := range indices {
		pages = append(pages, all[i])
	}

	switch opts.format {
	case "html":
		return a.previewHTML(cmd, &layout, pages, opts.output)
	case "png":
		return a.previewPNG(cmd, &layout, pages, opts.output)
	default:
		return errors.Errorf("unknown preview format %q (want html or png)", opts.format)
	}
}

func (a *app) previewHTML(cmd *cobra.Command, layout *labelsheet.Layout, pages []labelsheet.Page, output string) error {
	r, err := labelsheet.NewRenderer(layout)
	if err != nil {
		return err
	}
	if output == "" {
		output = "preview.html"
	}
	return writeOutput(cmd, output,
		func(w io.Writer) (int64, error) {
			return 0, r.RenderPreview(w, pages)
		},
		func(path string) error {
			f, err := os.Create(path)
			if err != nil {
				return errors.Wrap(err, "creating preview file")
			}
			if err := r.RenderPreview(f, pages); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
}

func (a *app) previewPNG(cmd *cobra.Command, layout *labelsheet.Layout, pages []labelsheet.Page, output string) error {
	if output == "-" {
		return errors.New("png previews need a file name prefix")
	}
	prefix := strings.TrimSuffix(output, ".png")
	if prefix == "" {
		prefix = "preview"
	}

	r, closeRaster, err := a.newRasterizer(layout)
	if err != nil {
		return err
	}
	defer closeRaster()

	ctx := contextOf(cmd)
	for _, pg := range pages {
		img, err := r.Rasterize(ctx, pg)
		if err != nil {
			return errors.Wrapf(err, "rendering page %d", pg.Index+1)
		}
		path := fmt.Sprintf("%s-%03d.png", prefix, pg.Index+1)
		if err := os.WriteFile(path, img.PNG, 0o644); err != nil {
			return errors.Wrap(err, "writing preview image")
		}
		log.WithFields(log.Fields{"file": path, "page": pg.Index + 1}).Info("wrote preview")
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return r.Clear(ctx)
}
