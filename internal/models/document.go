package models

import "strings"

// Page is the ordered sequence of physical lines extracted from one
// statement page.
type Page []RawLine

// NewPage builds a Page from raw line text, assigning 0-indexed positions
// and trimming surrounding whitespace.
func NewPage(lines []string) Page {
	page := make(Page, 0, len(lines))
	for i, text := range lines {
		page = append(page, RawLine{Index: i, Text: strings.TrimSpace(text)})
	}
	return page
}

// Document is the extraction input for one statement: the source path and
// the per-page line sequences produced by the text extraction layer. The
// path doubles as the issuer-detection filename hint.
type Document struct {
	Path  string `json:"path"`
	Pages []Page `json:"pages"`

	// IssuerHint forces issuer-specific parsing when set, bypassing the
	// filename and page-text detection. Empty means auto-detect.
	IssuerHint string `json:"issuer_hint,omitempty"`
}

// LineCount returns the total number of lines across all pages
func (d *Document) LineCount() int {
	n := 0
	for _, page := range d.Pages {
		n += len(page)
	}
	return n
}

// IsEmpty returns true if the document has no non-blank lines
func (d *Document) IsEmpty() bool {
	for _, page := range d.Pages {
		for _, line := range page {
			if !line.IsBlank() {
				return false
			}
		}
	}
	return true
}
