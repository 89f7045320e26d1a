package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/porticus-lab/labelsheet"
)

func exportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Render every label sheet and write them to one PDF",
		Long: `Reads every cell of the delimited text file as one label, lays the labels
out on sheets of the configured layout and writes one PDF page per sheet.
Use "-o -" to write the PDF to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = a.cfg.Output
			}
			return a.export(cmd, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PDF path (default from config, labels.pdf)")
	return cmd
}

func (a *app) export(cmd *cobra.Command, input, output string) error {
	layout, err := a.cfg.ResolveLayout()
	if err != nil {
		return err
	}
	readOpts, err := a.cfg.Input.ReadOptions()
	if err != nil {
		return err
	}

	raster, closeRaster, err := a.newRasterizer(&layout)
	if err != nil {
		return err
	}
	defer closeRaster()

	exp, err := labelsheet.NewExporter(&layout, raster,
		labelsheet.WithExportLogger(log.StandardLogger()),
		labelsheet.WithProgress(func(p labelsheet.Progress) {
			log.WithFields(log.Fields{
				"job":  p.JobID,
				"page": p.Page,
			}).Infof("exporting %d%%", p.Percent)
		}),
	)
	if err != nil {
		return err
	}

	if err := ingestFile(exp, input, readOpts); err != nil {
		return err
	}
	res, err := exp.Export(contextOf(cmd))
	if err != nil {
		return err
	}
	return writeOutput(cmd, output, res.WriteTo, func(path string) error {
		return res.WriteToFile(path, 0o644)
	})
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
