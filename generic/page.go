/*
page.go - Page arithmetic for report tables

PURPOSE:
  Report tables show a ranked list one fixed-size page at a time. Page p
  (1-based) of size s over N items holds the items [(p-1)*s, p*s), and the
  valid pages are [1, ceil(N/s)]. An empty list still has one (empty) page
  so that the table can render "no results" on page 1.

TWO ENTRY POINTS:
  Paginate: stateless, used by HTTP handlers. Returns *PageError when the
            requested page does not exist.

  Pager:    stateful cursor for a table view. Out-of-range navigation is a
            no-op (the current page is kept) and still reports the error so
            the caller can surface it. Jump() parses free-text page input and
            rejects anything that is not an integer in range.

PAGE SIZES:
  PageSizes lists the selectable sizes (5, 10, 20). Paginate accepts any
  positive size; Pager.SetPageSize only accepts the listed ones.

SEE ALSO:
  - rank.go: produces the ordered list that is paginated
  - errors.go: ErrPageOutOfRange, ErrInvalidPage, ErrInvalidPageSize
*/
package generic

import (
	"slices"
	"strconv"
	"strings"
)

// PageSizes are the selectable table page sizes.
var PageSizes = []int{5, 10, 20}

// DefaultPageSize is used when no size is requested.
const DefaultPageSize = 10

// Page is one window over a ranked list.
type Page[T any] struct {
	Items     []T
	Page      int
	PageSize  int
	PageCount int
	Total     int
}

// PageCount returns ceil(total/size), never less than 1.
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Window returns the half-open index range of page p.
func Window(page, size, total int) (start, end int) {
	start = (page - 1) * size
	end = start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return start, end
}

// Paginate returns page p of the given size.
func Paginate[T any](items []T, page, size int) (Page[T], error) {
	if size <= 0 {
		return Page[T]{}, &ValidationError{
			Field:  "page_size",
			Value:  strconv.Itoa(size),
			Reason: "must be positive",
			Err:    ErrInvalidPageSize,
		}
	}
	count := PageCount(len(items), size)
	if page < 1 || page > count {
		return Page[T]{}, &PageError{Page: page, PageCount: count}
	}
	start, end := Window(page, size, len(items))
	window := make([]T, end-start)
	copy(window, items[start:end])
	return Page[T]{
		Items:     window,
		Page:      page,
		PageSize:  size,
		PageCount: count,
		Total:     len(items),
	}, nil
}

// =============================================================================
// PAGER - Table cursor with no-op semantics for bad navigation
// =============================================================================

// Pager tracks the current page of a table whose row count may change.
type Pager struct {
	page  int
	size  int
	total int
}

// NewPager starts on page 1. A size outside PageSizes falls back to
// DefaultPageSize.
func NewPager(total, size int) *Pager {
	if !validPageSize(size) {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	return &Pager{page: 1, size: size, total: total}
}

func (p *Pager) Page() int      { return p.page }
func (p *Pager) Size() int      { return p.size }
func (p *Pager) Total() int     { return p.total }
func (p *Pager) PageCount() int { return PageCount(p.total, p.size) }

// Window returns the index range of the current page.
func (p *Pager) Window() (start, end int) {
	return Window(p.page, p.size, p.total)
}

// GoTo moves to page n. Out of range leaves the pager unchanged.
func (p *Pager) GoTo(n int) error {
	if n < 1 || n > p.PageCount() {
		return &PageError{Page: n, PageCount: p.PageCount()}
	}
	p.page = n
	return nil
}

func (p *Pager) Next() error { return p.GoTo(p.page + 1) }
func (p *Pager) Prev() error { return p.GoTo(p.page - 1) }

// Jump parses user-typed page input. Anything that is not an integer in
// [1, PageCount] is rejected with a *ValidationError and the page is kept.
func (p *Pager) Jump(input string) error {
	raw := strings.TrimSpace(input)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return &ValidationError{Field: "page", Value: input, Reason: "not a whole number", Err: ErrInvalidPage}
	}
	if n < 1 || n > p.PageCount() {
		return &ValidationError{
			Field:  "page",
			Value:  input,
			Reason: "must be between 1 and " + strconv.Itoa(p.PageCount()),
			Err:    ErrInvalidPage,
		}
	}
	p.page = n
	return nil
}

// SetPageSize changes the page size and returns to page 1.
func (p *Pager) SetPageSize(size int) error {
	if !validPageSize(size) {
		return &ValidationError{Field: "page_size", Value: strconv.Itoa(size), Reason: "not a selectable size", Err: ErrInvalidPageSize}
	}
	p.size = size
	p.page = 1
	return nil
}

// SetTotal updates the row count after a recompute, pulling the current
// page back inside the new range.
func (p *Pager) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	if p.page > p.PageCount() {
		p.page = p.PageCount()
	}
}

func validPageSize(size int) bool {
	return slices.Contains(PageSizes, size)
}
