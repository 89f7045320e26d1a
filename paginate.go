package labelsheet

import "github.com/pkg/errors"

// Page is one sheet worth of labels.
type Page struct {
	// Index is the 0-based position of the page in the output document.
	Index int
	// Labels holds at most the page capacity of labels, in input order.
	Labels []string
}

// Paginate splits labels into consecutive pages of perPage labels. The last
// page may be partially filled; no labels yields no pages.
func Paginate(labels []string, perPage int) ([]Page, error) {
	if perPage <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "got %d", perPage)
	}
	pages := make([]Page, 0, (len(labels)+perPage-1)/perPage)
	for start := 0; start < len(labels); start += perPage {
		end := start + perPage
		if end > len(labels) {
			end = len(labels)
		}
		// Cap the slice so appending to a page never writes into the next.
		pages = append(pages, Page{Index: len(pages), Labels: labels[start:end:end]})
	}
	return pages, nil
}
