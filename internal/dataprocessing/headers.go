package dataprocessing

import (
	"strings"
	"unicode"
)

// NormalizeHeader lowercases a column label, drops every rune that is neither a
// letter, a digit nor whitespace, and joins the remaining words with "_".
//
//	"No. #Days Page Missing" -> "no_days_page_missing"
//	"Site  ID:"              -> "site_id"
func NormalizeHeader(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}

// headerKey is the comparison key for headers and aliases.
// Word boundaries are ignored so "SiteID", "Site ID" and "site_id" collide.
func headerKey(label string) string {
	return strings.ReplaceAll(NormalizeHeader(label), "_", "")
}

// HeaderIndex maps normalized header keys to column positions
type HeaderIndex struct {
	columns map[string]int
}

// NewHeaderIndex builds the index for one header row.
// When two headers normalize to the same key the later column wins.
func NewHeaderIndex(headers []string) *HeaderIndex {
	idx := &HeaderIndex{
		columns: make(map[string]int, len(headers)),
	}
	for i, h := range headers {
		key := headerKey(h)
		if key == "" {
			continue
		}
		idx.columns[key] = i
	}
	return idx
}

// Lookup returns the column of the first alias that matches any header
func (h *HeaderIndex) Lookup(aliases ...string) (int, bool) {
	if h == nil {
		return 0, false
	}
	for _, alias := range aliases {
		if col, ok := h.columns[headerKey(alias)]; ok {
			return col, true
		}
	}
	return 0, false
}

// Row is one data row bound to its sheet's header index
type Row struct {
	Number int // 1-based sheet row
	Cells  []string
	index  *HeaderIndex
}

// NewRow binds cells to a header index
func NewRow(index *HeaderIndex, number int, cells []string) Row {
	return Row{Number: number, Cells: cells, index: index}
}

// Resolve returns the trimmed value under the first alias that matches a
// header, or "" when no alias matches. It never fails: short rows and
// unmatched aliases both yield "".
func (r Row) Resolve(aliases ...string) string {
	col, ok := r.index.Lookup(aliases...)
	if !ok || col >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[col])
}

// IsBlank reports whether every cell of the row is empty after trimming
func (r Row) IsBlank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
