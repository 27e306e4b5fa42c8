/*
Package importer turns spreadsheet exports into census records.

PURPOSE:
  Voter-roll and survey sheets are produced by hand, so headers drift
  ("Name(EN)", "Name (EN)", "Name") and numeric cells come back as
  floats ("12.0"). This package hides that from the engine:
  - Row: header-tolerant cell access; absent columns read as ""
  - Columns: accepted header variants per field, overridable from YAML
  - ReadSheet: .xlsx (first sheet) and .csv readers
  - Importer: read + map + run one workflow + persist the run

SCHEMA DRIFT:
  A missing column is never an error. Every read goes through Row.Get,
  which returns "" when no alias is present or every alias is blank.

SEE ALSO:
  - census/engine.go: Consumes the mapped records
  - importer/run.go: ImportRun and the RunStore boundary
*/
package importer

import (
	"strings"

	"golang.org/x/text/cases"
)

// =============================================================================
// ROW
// =============================================================================

// Row is one data row keyed by trimmed header.
type Row struct {
	Line   int // 1-based sheet line; the header is line 1
	cells  map[string]string
	folded map[string]string
}

// NewRow zips header and values. Missing trailing values read as "".
func NewRow(line int, header, values []string) Row {
	r := Row{
		Line:   line,
		cells:  make(map[string]string, len(header)),
		folded: make(map[string]string, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		var v string
		if i < len(values) {
			v = cleanCell(values[i])
		}
		// First column wins when a header repeats.
		if _, dup := r.cells[h]; !dup {
			r.cells[h] = v
		}
		if k := foldHeader(h); k != "" {
			if _, dup := r.folded[k]; !dup {
				r.folded[k] = v
			}
		}
	}
	return r
}

// Get returns the first non-empty cell among names. Exact header
// matches are tried before case- and spacing-insensitive ones.
func (r Row) Get(names ...string) string {
	for _, n := range names {
		if v := r.cells[n]; v != "" {
			return v
		}
	}
	for _, n := range names {
		if v := r.folded[foldHeader(n)]; v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether any of names is a column of the sheet.
func (r Row) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := r.cells[n]; ok {
			return true
		}
		if _, ok := r.folded[foldHeader(n)]; ok {
			return true
		}
	}
	return false
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for _, v := range r.cells {
		if v != "" {
			return false
		}
	}
	return true
}

// cleanCell trims and maps spreadsheet null markers to "".
func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") || strings.EqualFold(v, "none") || strings.EqualFold(v, "null") {
		return ""
	}
	return v
}

// foldHeader case-folds a header and drops spaces, so "Name (EN)" and
// "name(en)" compare equal.
func foldHeader(h string) string {
	return strings.Join(strings.Fields(cases.Fold().String(h)), "")
}
