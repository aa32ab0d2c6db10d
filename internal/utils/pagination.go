// Package utils provides small, generic helpers shared by the HTTP and
// service layers. Nothing here knows about contacts or envelopes.
package utils

import "strconv"

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request. Build it with NewPage or ParsePage so the
// bounds hold.
type Page struct {
	Number int
	Size   int
}

// NewPage bounds a page request: Number < 1 becomes 1, Size <= 0 becomes
// DefaultPageSize and Size above MaxPageSize is capped.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// ParsePage reads raw query values (e.g. "page" and "page_size"); anything
// unparsable is treated as absent.
func ParsePage(number, size string) Page {
	return NewPage(AtoiDefault(number, 1), AtoiDefault(size, DefaultPageSize))
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns how many pages of p.Size hold total rows.
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether another page follows p.
func (p Page) HasNext(total int64) bool { return p.Number < p.TotalPages(total) }

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// not a valid int. Surrounding spaces are not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
