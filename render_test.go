package labelsheet_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/porticus-lab/labelsheet"
)

// findByClass returns every element node carrying class.
func findByClass(n *html.Node, class string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "class" && a.Val == class {
					found = append(found, n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func newRenderer(t *testing.T) *labelsheet.Renderer {
	t.Helper()
	r, err := labelsheet.NewRenderer(nil)
	require.NoError(t, err)
	return r
}

func TestRenderPage_OneSheet(t *testing.T) {
	r := newRenderer(t)
	pg := labelsheet.Page{Index: 1, Labels: []string{"A", "B", "<script>"}}

	var buf bytes.Buffer
	require.NoError(t, r.RenderPage(&buf, pg))

	doc, err := html.Parse(&buf)
	require.NoError(t, err)

	sheets := findByClass(doc, "sheet")
	require.Len(t, sheets, 1)
	assert.Equal(t, "2", attr(sheets[0], "data-page"))

	labels := findByClass(doc, "label")
	require.Len(t, labels, 3)
	assert.Equal(t, "A", textOf(labels[0]))
	assert.Equal(t, "B", textOf(labels[1]))
	assert.Equal(t, "<script>", textOf(labels[2]), "label text must be escaped, not parsed")
}

func TestRenderPage_UsesLayoutGeometry(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.RenderPage(&buf, labelsheet.Page{Labels: []string{"A"}}))
	out := buf.String()

	assert.Contains(t, out, "width: 1152.00px")
	assert.Contains(t, out, "height: 1728.00px")
	assert.Contains(t, out, "font-size: 45.00px")
	assert.Contains(t, out, "Arial, sans-serif")
}

func TestRenderPreview_MatchesExportTarget(t *testing.T) {
	r := newRenderer(t)
	pages, err := labelsheet.Paginate([]string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K"}, 10)
	require.NoError(t, err)

	var preview bytes.Buffer
	require.NoError(t, r.RenderPreview(&preview, pages))
	doc, err := html.Parse(&preview)
	require.NoError(t, err)
	require.Len(t, findByClass(doc, "sheet"), 2)

	// Every label box in the preview must be styled exactly as in the
	// single-page document captured for export.
	previewLabels := findByClass(doc, "label")
	require.Len(t, previewLabels, 11)
	offset := 0
	for _, pg := range pages {
		var single bytes.Buffer
		require.NoError(t, r.RenderPage(&single, pg))
		pageDoc, err := html.Parse(&single)
		require.NoError(t, err)
		for i, n := range findByClass(pageDoc, "label") {
			assert.Equal(t, attr(n, "style"), attr(previewLabels[offset+i], "style"))
			assert.Equal(t, textOf(n), textOf(previewLabels[offset+i]))
		}
		offset += len(pg.Labels)
	}
}

func TestNewRenderer_InvalidLayout(t *testing.T) {
	_, err := labelsheet.NewRenderer(&labelsheet.Layout{
		PaperWidth: 4, PaperHeight: 4, LabelWidth: 5, LabelHeight: 5,
	})
	assert.Error(t, err)
}

func TestRender_RejectsOverfullPage(t *testing.T) {
	r := newRenderer(t)
	over := labelsheet.Page{Index: 0, Labels: make([]string, r.Layout().Capacity()+1)}

	var buf bytes.Buffer
	err := r.RenderPage(&buf, over)
	assert.ErrorIs(t, err, labelsheet.ErrCapacityExceeded)

	ok := labelsheet.Page{Labels: []string{"A"}}
	err = r.RenderPreview(&buf, []labelsheet.Page{ok, over})
	assert.ErrorIs(t, err, labelsheet.ErrCapacityExceeded)
}
