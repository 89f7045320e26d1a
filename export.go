package labelsheet

import (
	"context"
	"io"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// State is the phase of the export state machine.
type State int

const (
	// Idle accepts label loads and export requests.
	Idle State = iota
	// Exporting is rendering pages; loads and new exports are refused.
	Exporting
	// Done marks an export that produced a document.
	Done
	// Failed marks an export aborted by an error.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Exporting:
		return "exporting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is reported after each page of an export completes.
type Progress struct {
	JobID   string
	Page    int // pages completed
	Total   int
	Percent int // round(100 * Page / Total)
}

// Snapshot is a read-only view of an [Exporter]'s state.
type Snapshot struct {
	State    State
	Labels   int
	Pages    int
	JobID    string // current or last job
	Page     int    // pages completed in the current job
	Progress int    // 0-100 during an export, 0 otherwise
	Outcome  State  // Done or Failed for the last job, Idle before any
	Err      error  // cause of the last failure
}

// Exporting reports whether an export is running.
func (s Snapshot) Exporting() bool {
	return s.State == Exporting
}

// ExportOption configures an [Exporter].
type ExportOption func(*Exporter)

// WithProgress registers fn to observe progress after every page. fn runs
// on the exporting goroutine and must not call back into the Exporter's
// Export method.
func WithProgress(fn func(Progress)) ExportOption {
	return func(e *Exporter) {
		e.onProgress = fn
	}
}

// WithExportLogger sets the logger for export job messages.
func WithExportLogger(l log.FieldLogger) ExportOption {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDocumentFactory replaces how the output document is created for each
// job. It exists so callers can fix document metadata such as dates.
func WithDocumentFactory(fn func(*Layout) *Document) ExportOption {
	return func(e *Exporter) {
		if fn != nil {
			e.newDocument = fn
		}
	}
}

// Exporter owns the label list and runs export jobs: it paginates the
// labels, rasterizes each page in order and assembles the document.
//
// All state changes go through Load, Ingest and Export; callers observe
// it through Snapshot. An Exporter is safe for concurrent use, but only
// one export runs at a time.
type Exporter struct {
	layout      Layout
	raster      Rasterizer
	log         log.FieldLogger
	onProgress  func(Progress)
	newDocument func(*Layout) *Document

	mu       sync.Mutex
	labels   []string
	state    State
	jobID    string
	page     int
	progress int
	outcome  State
	lastErr  error
}

// NewExporter returns an idle Exporter drawing pages with r. If layout is
// nil, the rasterizer's layout is used. Otherwise it must equal the
// rasterizer's layout, or [ErrLayoutMismatch] is returned.
func NewExporter(layout *Layout, r Rasterizer, opts ...ExportOption) (*Exporter, error) {
	if r == nil {
		return nil, errors.New("labelsheet: nil rasterizer")
	}
	drawn := r.Layout()
	l := drawn
	if layout != nil {
		l = layout.resolved()
	}
	if err := l.Validate(); err != nil {
		return nil, errors.Wrap(err, "labelsheet: invalid layout")
	}
	if l != drawn {
		return nil, errors.Wrapf(ErrLayoutMismatch, "exporting %q, rasterizer draws %q", l.Name, drawn.Name)
	}

	e := &Exporter{
		layout:      l,
		raster:      r,
		log:         log.StandardLogger(),
		newDocument: NewDocument,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Layout returns the resolved layout.
func (e *Exporter) Layout() Layout {
	return e.layout
}

// Load replaces the label list with a copy of labels.
func (e *Exporter) Load(labels []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Exporting {
		return ErrExportInProgress
	}
	e.labels = append([]string(nil), labels...)
	return nil
}

// Ingest reads labels from r with [ReadLabels] and replaces the label
// list. On error the previous labels are kept.
func (e *Exporter) Ingest(r io.Reader, opts *ReadOptions) error {
	labels, err := ReadLabels(r, opts)
	if err != nil {
		return err
	}
	if err := e.Load(labels); err != nil {
		return err
	}
	e.log.WithField("labels", len(labels)).Info("labels loaded")
	return nil
}

// Labels returns a copy of the current label list.
func (e *Exporter) Labels() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.labels...)
}

// Pages paginates the current labels with the layout's page capacity.
func (e *Exporter) Pages() []Page {
	pages, _ := Paginate(e.Labels(), e.layout.PerPage())
	return pages
}

// CanExport reports whether an export would be accepted now.
func (e *Exporter) CanExport() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.labels) > 0 && e.state != Exporting
}

// Snapshot returns the current state.
func (e *Exporter) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	perPage := e.layout.PerPage()
	return Snapshot{
		State:    e.state,
		Labels:   len(e.labels),
		Pages:    (len(e.labels) + perPage - 1) / perPage,
		JobID:    e.jobID,
		Page:     e.page,
		Progress: e.progress,
		Outcome:  e.outcome,
		Err:      e.lastErr,
	}
}

// Export renders every page in order and assembles them into one PDF.
//
// With no labels loaded Export returns [ErrNoLabels] without touching the
// rasterizer or the state. The first failing page aborts the job; the
// returned error is a [*PageError] and no document is produced. Progress,
// the exporting flag and the render target are reset however the job ends.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if len(e.labels) == 0 {
		e.mu.Unlock()
		return nil, ErrNoLabels
	}
	if e.state == Exporting {
		e.mu.Unlock()
		return nil, ErrExportInProgress
	}
	labels := e.labels
	jobID := uuid.NewString()
	e.state = Exporting
	e.jobID = jobID
	e.page = 0
	e.progress = 0
	e.mu.Unlock()

	pages, err := Paginate(labels, e.layout.PerPage())
	if err != nil {
		e.finish(ctx, err)
		return nil, err
	}

	logger := e.log.WithFields(log.Fields{
		"job":    jobID,
		"layout": e.layout.Name,
		"labels": len(labels),
		"pages":  len(pages),
	})
	logger.Info("export started")

	res, err := e.run(ctx, jobID, pages, logger)
	e.finish(ctx, err)
	if err != nil {
		logger.WithError(err).Error("export failed")
		return nil, err
	}
	logger.WithField("bytes", res.Len()).Info("export finished")
	return res, nil
}

// run is the Exporting state: one page at a time, strictly in order.
func (e *Exporter) run(ctx context.Context, jobID string, pages []Page, logger log.FieldLogger) (*Result, error) {
	doc := e.newDocument(&e.layout)
	total := len(pages)
	for i, pg := range pages {
		if err := ctx.Err(); err != nil {
			return nil, &PageError{Page: i + 1, Total: total, Step: "render", Err: err}
		}

		r, err := e.raster.Rasterize(ctx, pg)
		if err != nil {
			return nil, &PageError{Page: i + 1, Total: total, Step: "render", Err: err}
		}
		if err := doc.AppendPage(r); err != nil {
			return nil, &PageError{Page: i + 1, Total: total, Step: "append", Err: err}
		}

		p := Progress{JobID: jobID, Page: i + 1, Total: total, Percent: Percent(i+1, total)}
		e.mu.Lock()
		e.page = p.Page
		e.progress = p.Percent
		e.mu.Unlock()

		logger.WithFields(log.Fields{"page": p.Page, "progress": p.Percent}).Debug("page appended")
		if e.onProgress != nil {
			e.onProgress(p)
		}
	}
	return doc.Finish()
}

// finish records the outcome and returns the machine to Idle.
func (e *Exporter) finish(ctx context.Context, err error) {
	if cerr := e.raster.Clear(context.WithoutCancel(ctx)); cerr != nil {
		e.log.WithError(cerr).Warn("clearing render target")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcome = Done
	e.lastErr = nil
	if err != nil {
		e.outcome = Failed
		e.lastErr = err
	}
	e.page = 0
	e.progress = 0
	e.state = Idle
}

// Percent returns round(100 * done / total), or 0 when total is zero.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
