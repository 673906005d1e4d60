package services

import "math"

const (
	// MaxPageSize caps the page size a caller can request
	MaxPageSize = 100
	// MaxPageNumber keeps Offset within int32 so the SQL OFFSET never overflows
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// Page selects a 1-based page of results
type Page struct {
	Number int
	Size   int
}

// NewPage normalizes raw query values, falling back to defaultSize when size is unset
func NewPage(number, size, defaultSize int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasNext reports whether rows remain after this page
func (p Page) HasNext(total int64) bool {
	return int64(p.Number*p.Size) < total
}
