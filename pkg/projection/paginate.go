package projection

import "strconv"

// Page size bounds applied when a pager is built without explicit limits.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Pager normalises page parameters. Oversized requests are clamped, malformed
// ones fall back to defaults; nothing is rejected.
type Pager struct {
	DefaultSize int
	MaxSize     int
}

// NewPager returns a pager with the given bounds, substituting package
// defaults for non-positive values.
func NewPager(defaultSize, maxSize int) Pager {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	return Pager{DefaultSize: defaultSize, MaxSize: maxSize}
}

// Page is one window over a row set.
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int
}

// Size parses a raw page_size parameter.
func (p Pager) Size(raw string) int {
	size, err := strconv.Atoi(raw)
	if err != nil || size < 1 {
		return p.DefaultSize
	}
	if size > p.MaxSize {
		return p.MaxSize
	}
	return size
}

// Number parses a raw page parameter.
func (p Pager) Number(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Paginate slices rows into the requested window. Total is always the full
// row count; a page past the end is empty.
func Paginate[T any](rows []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(rows)
	start := total
	if page-1 <= total/pageSize {
		start = (page - 1) * pageSize
		if start > total {
			start = total
		}
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	items := make([]T, end-start)
	copy(items, rows[start:end])
	return Page[T]{Items: items, Page: page, PageSize: pageSize, Total: total}
}
