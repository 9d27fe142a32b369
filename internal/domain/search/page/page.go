// Package page computes skip/limit windows and next-page metadata.
package page

import (
	"errors"
	"strconv"

	"github.com/kailas-cloud/propsales/internal/domain"
)

// DefaultSize is the page size used when none is configured.
const DefaultSize = 20

// Window is one page of a result set.
type Window struct {
	num  int
	size int
}

// New validates the page number and size.
func New(pageNum, pageSize int) (Window, error) {
	if pageNum < 1 {
		return Window{}, domain.NewValidationError("page_num", strconv.Itoa(pageNum),
			errors.New("must be at least 1"))
	}
	if pageSize < 1 {
		return Window{}, domain.NewValidationError("page_size", strconv.Itoa(pageSize),
			errors.New("must be at least 1"))
	}
	return Window{num: pageNum, size: pageSize}, nil
}

// Num returns the 1-based page number.
func (w Window) Num() int { return w.num }

// Size returns the page size.
func (w Window) Size() int { return w.size }

// Skip returns the number of documents before this page.
func (w Window) Skip() int { return (w.num - 1) * w.size }

// Meta is the pagination summary returned with a page.
type Meta struct {
	Total    int
	HasNext  bool
	NextPage *int
}

// Meta derives pagination metadata from the total number of matches.
func (w Window) Meta(total int) Meta {
	m := Meta{Total: total, HasNext: total > w.num*w.size}
	if m.HasNext {
		next := w.num + 1
		m.NextPage = &next
	}
	return m
}
