package labelsheet_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/labelsheet"
)

// fakeRasterizer records calls and delegates drawing to a small native
// rasterizer so the document receives real PNGs.
type fakeRasterizer struct {
	native *labelsheet.NativeRasterizer
	failOn int // 1-based page number to fail on; 0 never fails

	mu       sync.Mutex
	rendered [][]string
	clears   int
	onRender func(labelsheet.Page)
}

var errCapture = errors.New("capture failed")

func newFakeRasterizer(t *testing.T) *fakeRasterizer {
	t.Helper()
	n, err := labelsheet.NewNativeRasterizer(nil, 0.1)
	require.NoError(t, err)
	return &fakeRasterizer{native: n}
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, pg labelsheet.Page) (*labelsheet.Raster, error) {
	f.mu.Lock()
	f.rendered = append(f.rendered, pg.Labels)
	hook := f.onRender
	f.mu.Unlock()
	if hook != nil {
		hook(pg)
	}
	if f.failOn == pg.Index+1 {
		return nil, errCapture
	}
	return f.native.Rasterize(ctx, pg)
}

func (f *fakeRasterizer) Layout() labelsheet.Layout {
	return f.native.Layout()
}

func (f *fakeRasterizer) Clear(context.Context) error {
	f.mu.Lock()
	f.clears++
	f.mu.Unlock()
	return nil
}

func labelsN(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("L%d", i+1)
	}
	return labels
}

func newExporter(t *testing.T, r labelsheet.Rasterizer, opts ...labelsheet.ExportOption) *labelsheet.Exporter {
	t.Helper()
	logger, _ := test.NewNullLogger()
	opts = append([]labelsheet.ExportOption{labelsheet.WithExportLogger(logger)}, opts...)
	e, err := labelsheet.NewExporter(nil, r, opts...)
	require.NoError(t, err)
	return e
}

func TestExport_EmptyGuard(t *testing.T) {
	fake := newFakeRasterizer(t)
	e := newExporter(t, fake)
	before := e.Snapshot()

	assert.False(t, e.CanExport())
	res, err := e.Export(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, labelsheet.ErrNoLabels)

	assert.Empty(t, fake.rendered)
	assert.Equal(t, 0, fake.clears)
	assert.Equal(t, before, e.Snapshot())
}

func TestExport_Success(t *testing.T) {
	fake := newFakeRasterizer(t)
	var progress []labelsheet.Progress
	e := newExporter(t, fake, labelsheet.WithProgress(func(p labelsheet.Progress) {
		progress = append(progress, p)
	}))
	require.NoError(t, e.Load(labelsN(25)))
	assert.True(t, e.CanExport())
	assert.Equal(t, 3, e.Snapshot().Pages)

	res, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.True(t, isPDF(res.Bytes()))
	assert.Equal(t, 3, res.Pages())

	require.Len(t, fake.rendered, 3)
	assert.Equal(t, labelsN(25)[:10], fake.rendered[0])
	assert.Equal(t, labelsN(25)[20:], fake.rendered[2])

	require.Len(t, progress, 3)
	want := []int{33, 67, 100}
	for i, p := range progress {
		assert.Equal(t, i+1, p.Page)
		assert.Equal(t, 3, p.Total)
		assert.Equal(t, want[i], p.Percent)
		assert.Equal(t, progress[0].JobID, p.JobID)
	}

	snap := e.Snapshot()
	assert.Equal(t, labelsheet.Idle, snap.State)
	assert.Equal(t, labelsheet.Done, snap.Outcome)
	assert.Equal(t, 0, snap.Progress)
	assert.False(t, snap.Exporting())
	assert.NoError(t, snap.Err)
	assert.Equal(t, 1, fake.clears)
}

func TestExport_ProgressMonotonic(t *testing.T) {
	for _, total := range []int{1, 2, 3, 6, 7, 11} {
		t.Run(fmt.Sprint(total), func(t *testing.T) {
			fake := newFakeRasterizer(t)
			var seen []int
			e := newExporter(t, fake, labelsheet.WithProgress(func(p labelsheet.Progress) {
				seen = append(seen, p.Percent)
			}))
			require.NoError(t, e.Load(labelsN(total*10)))

			_, err := e.Export(context.Background())
			require.NoError(t, err)

			require.Len(t, seen, total)
			for k := 1; k <= total; k++ {
				assert.Equal(t, labelsheet.Percent(k, total), seen[k-1])
				if k > 1 {
					assert.GreaterOrEqual(t, seen[k-1], seen[k-2])
				}
			}
			assert.Equal(t, 100, seen[total-1])
		})
	}
}

func TestExport_ProgressObservableDuringExport(t *testing.T) {
	fake := newFakeRasterizer(t)
	e := newExporter(t, fake)
	var during []labelsheet.Snapshot
	fake.onRender = func(labelsheet.Page) {
		during = append(during, e.Snapshot())
	}
	require.NoError(t, e.Load(labelsN(20)))

	_, err := e.Export(context.Background())
	require.NoError(t, err)

	require.Len(t, during, 2)
	assert.True(t, during[0].Exporting())
	assert.Equal(t, 0, during[0].Progress)
	assert.Equal(t, 50, during[1].Progress)
	assert.True(t, e.CanExport())
}

func TestExport_FailureCleanup(t *testing.T) {
	fake := newFakeRasterizer(t)
	fake.failOn = 2
	var progress []int
	e := newExporter(t, fake, labelsheet.WithProgress(func(p labelsheet.Progress) {
		progress = append(progress, p.Percent)
	}))
	require.NoError(t, e.Load(labelsN(35)))

	res, err := e.Export(context.Background())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, errCapture)

	var pageErr *labelsheet.PageError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, 2, pageErr.Page)
	assert.Equal(t, 4, pageErr.Total)
	assert.Equal(t, "render", pageErr.Step)
	assert.Contains(t, err.Error(), "capture failed")

	assert.Len(t, fake.rendered, 2, "no page after the failing one is rendered")
	assert.Equal(t, []int{25}, progress)
	assert.Equal(t, 1, fake.clears)

	snap := e.Snapshot()
	assert.Equal(t, labelsheet.Idle, snap.State)
	assert.Equal(t, labelsheet.Failed, snap.Outcome)
	assert.Equal(t, 0, snap.Progress)
	assert.Equal(t, 0, snap.Page)
	assert.False(t, snap.Exporting())
	assert.ErrorIs(t, snap.Err, errCapture)

	// The machine is back in Idle and can run again.
	fake.failOn = 0
	res, err = e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Pages())
	assert.Equal(t, labelsheet.Done, e.Snapshot().Outcome)
}

func TestExport_CancelledContext(t *testing.T) {
	fake := newFakeRasterizer(t)
	e := newExporter(t, fake)
	require.NoError(t, e.Load(labelsN(3)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Export(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.rendered)
	assert.Equal(t, 1, fake.clears)
	assert.Equal(t, labelsheet.Failed, e.Snapshot().Outcome)
}

func TestExport_RejectsConcurrentUse(t *testing.T) {
	fake := newFakeRasterizer(t)
	e := newExporter(t, fake)
	require.NoError(t, e.Load(labelsN(5)))

	var loadErr, exportErr error
	fake.onRender = func(labelsheet.Page) {
		loadErr = e.Load([]string{"X"})
		_, exportErr = e.Export(context.Background())
	}
	_, err := e.Export(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, loadErr, labelsheet.ErrExportInProgress)
	assert.ErrorIs(t, exportErr, labelsheet.ErrExportInProgress)
	assert.Equal(t, labelsN(5), e.Labels())
}

func TestLoad_ReplacesLabels(t *testing.T) {
	e := newExporter(t, newFakeRasterizer(t))
	require.NoError(t, e.Load([]string{"A", "B"}))
	require.NoError(t, e.Load([]string{"C"}))
	assert.Equal(t, []string{"C"}, e.Labels())

	labels := []string{"D"}
	require.NoError(t, e.Load(labels))
	labels[0] = "changed"
	assert.Equal(t, []string{"D"}, e.Labels())
}

func TestIngest_Idempotent(t *testing.T) {
	e := newExporter(t, newFakeRasterizer(t))
	const input = "A,B\nC\n"

	require.NoError(t, e.Ingest(strings.NewReader(input), nil))
	first := e.Labels()
	require.NoError(t, e.Ingest(strings.NewReader(input), nil))
	assert.Equal(t, first, e.Labels())
	assert.Equal(t, []string{"A", "B", "C"}, first)

	pages, err := labelsheet.Paginate(first, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"C"}}, [][]string{pages[0].Labels, pages[1].Labels})
}

func TestExport_LogsJob(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	e, err := labelsheet.NewExporter(nil, newFakeRasterizer(t), labelsheet.WithExportLogger(logger))
	require.NoError(t, err)
	require.NoError(t, e.Load(labelsN(11)))

	_, err = e.Export(context.Background())
	require.NoError(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "export finished", last.Message)
	assert.Equal(t, e.Snapshot().JobID, last.Data["job"])
	assert.Equal(t, 2, last.Data["pages"])
}

func TestNewExporter_InvalidLayout(t *testing.T) {
	l := labelsheet.DefaultLayout()
	l.LabelsPerPage = 50
	_, err := labelsheet.NewExporter(&l, newFakeRasterizer(t))
	assert.ErrorIs(t, err, labelsheet.ErrCapacityExceeded)
}

func TestNewExporter_LayoutMismatch(t *testing.T) {
	letter, err := labelsheet.LookupLayout("letter-2x5")
	require.NoError(t, err)
	a4, err := labelsheet.LookupLayout("a4-2x4")
	require.NoError(t, err)
	r, err := labelsheet.NewNativeRasterizer(&a4, 0.1)
	require.NoError(t, err)

	_, err = labelsheet.NewExporter(&letter, r)
	assert.ErrorIs(t, err, labelsheet.ErrLayoutMismatch)

	// Without a layout of its own the exporter pages by the rasterizer's sheet.
	e, err := labelsheet.NewExporter(nil, r)
	require.NoError(t, err)
	assert.Equal(t, "a4-2x4", e.Layout().Name)
	require.NoError(t, e.Load(labelsN(20)))
	res, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, labelsheet.Percent(0, 0))
	assert.Equal(t, 33, labelsheet.Percent(1, 3))
	assert.Equal(t, 67, labelsheet.Percent(2, 3))
	assert.Equal(t, 100, labelsheet.Percent(3, 3))
	assert.Equal(t, 17, labelsheet.Percent(1, 6))
}
