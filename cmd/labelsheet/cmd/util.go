package cmd

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/porticus-lab/labelsheet"
	"github.com/porticus-lab/labelsheet/internal/config"
)

// newRasterizer builds the configured rasterizer. The returned func
// releases it and is never nil when err is nil.
func (a *app) newRasterizer(layout *labelsheet.Layout) (labelsheet.Rasterizer, func(), error) {
	if a.cfg.Rasterizer == config.RasterizerNative {
		r, err := labelsheet.NewNativeRasterizer(layout, a.cfg.Scale)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {}, nil
	}

	b := a.cfg.Browser
	opts := []labelsheet.Option{
		labelsheet.WithScale(a.cfg.Scale),
		labelsheet.WithTimeout(b.Timeout),
		labelsheet.WithLogger(log.StandardLogger()),
	}
	if b.ChromePath != "" {
		opts = append(opts, labelsheet.WithChromePath(b.ChromePath))
	}
	if b.NoSandbox {
		opts = append(opts, labelsheet.WithNoSandbox())
	}
	if b.AutoDownload {
		opts = append(opts, labelsheet.WithAutoDownload())
	}

	r, err := labelsheet.NewBrowserRasterizer(layout, opts...)
	if err != nil {
		return nil, nil, err
	}
	return r, func() {
		if err := r.Close(); err != nil {
			log.WithError(err).Warn("closing browser")
		}
	}, nil
}

// readLabels reads the labels of the file at path, or of stdin for "-".
func readLabels(path string, opts *labelsheet.ReadOptions) ([]string, error) {
	if path == "-" {
		return labelsheet.ReadLabels(os.Stdin, opts)
	}
	return labelsheet.ReadLabelsFile(path, opts)
}

// ingestFile loads the labels of the file at path, or of stdin for "-",
// into exp.
func ingestFile(exp *labelsheet.Exporter, path string, opts *labelsheet.ReadOptions) error {
	if path == "-" {
		return exp.Ingest(os.Stdin, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer f.Close()
	return exp.Ingest(f, opts)
}

// writeOutput sends output to the command's stdout for "-" and to a file
// otherwise.
func writeOutput(cmd *cobra.Command, path string, toWriter func(io.Writer) (int64, error), toFile func(string) error) error {
	if path == "-" {
		_, err := toWriter(cmd.OutOrStdout())
		return err
	}
	if err := toFile(path); err != nil {
		return err
	}
	log.WithField("file", path).Info("wrote output")
	return nil
}

// parsePageRange converts a page range string to a slice of 0-based page indices.
// Supported formats: "" (all), "3" (single page), "1-5" (range), "1,3,5" (list).
func parsePageRange(spec string, total int) ([]int, error) {
	if spec == "" {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	var indices []int
	seen := make(map[int]bool)
	add := func(p int) {
		if !seen[p] {
			indices = append(indices, p-1)
			seen[p] = true
		}
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if from, to, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(from))
			if err != nil {
				return nil, errors.Errorf("invalid page number: %s", from)
			}
			end, err := strconv.Atoi(strings.TrimSpace(to))
			if err != nil {
				return nil, errors.Errorf("invalid page number: %s", to)
			}
			if start < 1 || end > total || start > end {
				return nil, errors.Errorf("page range %d-%d out of bounds (1-%d)", start, end, total)
			}
			for p := start; p <= end; p++ {
				add(p)
			}
			continue
		}

		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Errorf("invalid page number: %s", part)
		}
		if p < 1 || p > total {
			return nil, errors.Errorf("page %d out of bounds (1-%d)", p, total)
		}
		add(p)
	}

	return indices, nil
}
