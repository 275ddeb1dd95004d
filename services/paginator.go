package services

import "ipotrack/models"

// Page size choices exposed to clients.
var PageSizeOptions = []int{10, 25, 50}

const DefaultPageSize = 25

// Paginator tracks the current page and page size over an ordered list
// and exposes the 1-based display bounds for the active page.
//
// State rules: changing the page size resets to page 1; a new reset
// trigger (a changed sort signature) resets to page 1; the current page
// is re-clamped whenever the underlying item count changes; navigating
// outside [1, totalPages] is a no-op rather than an error.
type Paginator struct {
	page       int
	pageSize   int
	totalItems int
	resetKey   string
}

// NewPaginator creates a paginator at page 1 with the default size.
func NewPaginator() *Paginator {
	return &Paginator{page: 1, pageSize: DefaultPageSize}
}

// SetPageSize applies one of the allowed page sizes and resets to page
// 1. Unrecognized sizes fall back to the default.
func (p *Paginator) SetPageSize(size int) {
	applied := DefaultPageSize
	for _, option := range PageSizeOptions {
		if size == option {
			applied = option
			break
		}
	}
	p.pageSize = applied
	p.page = 1
}

// SetTotalItems records the item count and re-clamps the current page.
func (p *Paginator) SetTotalItems(count int) {
	if count < 0 {
		count = 0
	}
	p.totalItems = count
	p.clamp()
}

// ApplyResetTrigger resets to page 1 when the trigger identity changes
// (a new sort order being applied).
func (p *Paginator) ApplyResetTrigger(key string) {
	if key != p.resetKey {
		p.resetKey = key
		p.page = 1
	}
}

// GoToPage navigates to the requested page; requests outside the valid
// range leave the current page unchanged.
func (p *Paginator) GoToPage(page int) {
	if page < 1 || page > p.TotalPages() {
		return
	}
	p.page = page
}

func (p *Paginator) clamp() {
	if total := p.TotalPages(); p.page > total {
		p.page = total
	}
	if p.page < 1 {
		p.page = 1
	}
}

// Page returns the current 1-based page number.
func (p *Paginator) Page() int { return p.page }

// PageSize returns the active page size.
func (p *Paginator) PageSize() int { return p.pageSize }

// TotalItems returns the recorded item count.
func (p *Paginator) TotalItems() int { return p.totalItems }

// TotalPages returns ceil(totalItems / pageSize), never less than 1.
func (p *Paginator) TotalPages() int {
	pages := (p.totalItems + p.pageSize - 1) / p.pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// StartIndex returns the 1-based inclusive index of the first item on
// the current page, or 0 when the list is empty.
func (p *Paginator) StartIndex() int {
	if p.totalItems == 0 {
		return 0
	}
	return (p.page-1)*p.pageSize + 1
}

// EndIndex returns the 1-based inclusive index of the last item on the
// current page, or 0 when the list is empty.
func (p *Paginator) EndIndex() int {
	if p.totalItems == 0 {
		return 0
	}
	end := p.page * p.pageSize
	if end > p.totalItems {
		end = p.totalItems
	}
	return end
}

// HasPagination reports whether page controls should render at all.
func (p *Paginator) HasPagination() bool {
	return p.TotalPages() > 1
}

// PageNumbers returns the page control sequence 1..totalPages, or nil
// when everything fits on a single page and controls are suppressed.
func (p *Paginator) PageNumbers() []int {
	total := p.TotalPages()
	if total <= 1 {
		return nil
	}
	numbers := make([]int, total)
	for i := range numbers {
		numbers[i] = i + 1
	}
	return numbers
}

// Slice returns the window of records for the current page. The input
// must be the same list SetTotalItems was called with.
func (p *Paginator) Slice(records []models.IPO) []models.IPO {
	start := (p.page - 1) * p.pageSize
	if start >= len(records) {
		return []models.IPO{}
	}
	end := start + p.pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
