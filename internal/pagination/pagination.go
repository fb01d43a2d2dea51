// Package pagination implements forgiving page resolution: out-of-range or
// malformed page numbers clamp to the nearest valid page instead of erroring.
package pagination

// Page describes one resolved page of a listing.
type Page struct {
	Number   int   `json:"number"`
	PerPage  int   `json:"per_page"`
	NumPages int   `json:"num_pages"`
	Total    int64 `json:"total"`
}

// Resolve clamps the requested page number into the valid range for the given
// total. A request below 1 resolves to the first page; a request past the end
// resolves to the last. An empty listing still has one (empty) page.
func Resolve(requested, perPage int, total int64) Page {
	if perPage < 1 {
		perPage = 1
	}

	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return Page{
		Number:   number,
		PerPage:  perPage,
		NumPages: numPages,
		Total:    total,
	}
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool {
	return p.Number > 1
}
