package repository

import "math"

// DefaultPageSize is the number of rows returned per page of a listing.
const DefaultPageSize = 25

// Page selects a 1-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// NewPage returns a page with out-of-range values replaced by defaults.
// Numbers too large for their offset to fit in an int are clamped.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if last := math.MaxInt / size; number > last {
		number = last
	}
	return Page{Number: number, Size: size}
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}
