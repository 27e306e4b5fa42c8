package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CELL PARSERS
// =============================================================================
// Malformed cells never fail a row: they parse to "absent".

// YesNo reports whether a cell says "yes".
func YesNo(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}

// Int parses a whole number, accepting float renderings such as "42.0".
// Fractions are truncated. Returns nil when the cell is blank or not a number.
func Int(v string) *int64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil
	}
	n := d.IntPart()
	return &n
}

// Count is Int narrowed to int.
func Count(v string) *int {
	n := Int(v)
	if n == nil {
		return nil
	}
	a := int(*n)
	return &a
}

// Age parses an age cell.
func Age(v string) *int { return Count(v) }

// Code cleans an identifier-like cell. Integral numbers exported as
// floats ("1234.0") lose the fraction; anything else is kept verbatim.
func Code(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || !strings.ContainsAny(v, ".eE") {
		return v
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return v
	}
	return d.Truncate(0).String()
}

var dateLayouts = []string{
	time.DateOnly,         // 2006-01-02
	"02-01-2006",          // day first, dashes
	"02/01/2006",          // day first, slashes
	"2006-01-02 15:04:05", // spreadsheet datetime rendering
	time.RFC3339,
}

// Date parses a date cell. Returns nil when no layout matches.
func Date(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// List splits a comma-separated cell into trimmed, non-empty tokens.
func List(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
