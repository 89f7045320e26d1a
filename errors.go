package labelsheet

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when attempting to use a closed [BrowserRasterizer].
	ErrClosed = errors.New("labelsheet: rasterizer is closed")

	// ErrNoLabels is returned by [Exporter.Export] when no labels are loaded.
	ErrNoLabels = errors.New("labelsheet: no labels to export")

	// ErrExportInProgress is returned when an export is already running.
	ErrExportInProgress = errors.New("labelsheet: export already in progress")

	// ErrInvalidCapacity is returned by [Paginate] for a page capacity below one.
	ErrInvalidCapacity = errors.New("labelsheet: page capacity must be positive")

	// ErrCapacityExceeded is reported by [Layout.Validate] when LabelsPerPage
	// asks for more labels than fit on the sheet.
	ErrCapacityExceeded = errors.New("labelsheet: labels per page exceed sheet capacity")

	// ErrEmptyDocument is returned when finishing a document with no pages.
	ErrEmptyDocument = errors.New("labelsheet: document has no pages")

	// ErrLayoutMismatch is returned by [NewExporter] when the rasterizer
	// draws with a different layout than the one pages are cut for.
	ErrLayoutMismatch = errors.New("labelsheet: rasterizer layout differs from export layout")

	// ErrUnknownLayout is returned by [LookupLayout] for an unregistered name.
	ErrUnknownLayout = errors.New("labelsheet: unknown layout")
)

// PageError reports the export step that failed and the page it failed on.
type PageError struct {
	Page  int    // 1-based page number.
	Total int    // Number of pages in the export job.
	Step  string // "render" or "append".
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("labelsheet: %s page %d of %d: %v", e.Step, e.Page, e.Total, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
