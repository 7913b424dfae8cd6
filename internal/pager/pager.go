// Package pager maintains pagination and sort state for server-paginated
// views and translates it into fetch parameters.
package pager

import "strings"

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// AllowedPageSizes are the page sizes the UI offers.
var AllowedPageSizes = []int{10, 20, 50, 100}

// DefaultPageSize is used until the user picks another size.
const DefaultPageSize = 20

// Pager tracks the current page, page size and sort of a paginated view.
// TotalPages is always derived from the last reported total count, never
// stored. Pager itself performs no fetching; callers refetch when a mutating
// method reports a change.
type Pager struct {
	sortField  string
	sortDir    Direction
	page       int
	pageSize   int
	totalCount int
}

// New creates a pager on page 1 with the given initial sort.
func New(sortField string, sortDir Direction) *Pager {
	return &Pager{
		page:      1,
		pageSize:  DefaultPageSize,
		sortField: sortField,
		sortDir:   sortDir,
	}
}

// Page returns the current page, 1-based.
func (p *Pager) Page() int { return p.page }

// PageSize returns the current page size.
func (p *Pager) PageSize() int { return p.pageSize }

// SortField returns the current sort field.
func (p *Pager) SortField() string { return p.sortField }

// SortDir returns the current sort direction.
func (p *Pager) SortDir() Direction { return p.sortDir }

// TotalCount returns the last reported total result count.
func (p *Pager) TotalCount() int { return p.totalCount }

// TotalPages derives the page count from the total: at least 1 page even for
// an empty result set.
func (p *Pager) TotalPages() int {
	if p.totalCount <= 0 {
		return 1
	}
	pages := (p.totalCount + p.pageSize - 1) / p.pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// SetTotalCount records the server's total matching count. The current page
// is clamped if the new total leaves it past the end.
func (p *Pager) SetTotalCount(n int) {
	if n < 0 {
		n = 0
	}
	p.totalCount = n
	if p.page > p.TotalPages() {
		p.page = p.TotalPages()
	}
}

// SetPage moves to page n, clamping silently into [1, TotalPages]. It reports
// whether the page actually changed.
func (p *Pager) SetPage(n int) bool {
	if n < 1 {
		n = 1
	}
	if max := p.TotalPages(); n > max {
		n = max
	}
	if n == p.page {
		return false
	}
	p.page = n
	return true
}

// SetPageSize changes the page size and resets to page 1, since a size change
// invalidates offset assumptions. Sizes outside AllowedPageSizes are ignored.
func (p *Pager) SetPageSize(n int) bool {
	allowed := false
	for _, s := range AllowedPageSizes {
		if s == n {
			allowed = true
			break
		}
	}
	if !allowed || n == p.pageSize {
		return false
	}
	p.pageSize = n
	p.page = 1
	return true
}

// ToggleSort sorts by field. Toggling the current field flips direction;
// adopting a new field uses a type-aware default: score fields surface
// highest first, everything else sorts ascending. Page resets to 1 either way.
func (p *Pager) ToggleSort(field string) {
	if field == p.sortField {
		if p.sortDir == Ascending {
			p.sortDir = Descending
		} else {
			p.sortDir = Ascending
		}
	} else {
		p.sortField = field
		p.sortDir = DefaultDirection(field)
	}
	p.page = 1
}

// ResetPage returns to page 1, reporting whether that was a change. Filter
// changes go through this: a new filter invalidates the old page's meaning.
func (p *Pager) ResetPage() bool {
	if p.page == 1 {
		return false
	}
	p.page = 1
	return true
}

// DefaultDirection returns the type-aware default sort direction for a field.
func DefaultDirection(field string) Direction {
	if IsScoreField(field) {
		return Descending
	}
	return Ascending
}

// IsScoreField reports whether a sort field denotes a numeric score.
func IsScoreField(field string) bool {
	return strings.HasSuffix(field, "_score")
}
