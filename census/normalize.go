package census

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// minTokenLen is the shortest token kept by Normalize. Shorter tokens are
// initials or honorific fragments ("K", "KP", "Dr").
const minTokenLen = 3

// Normalize canonicalises a display name for comparison:
// lowercase, strip punctuation, drop tokens of two runes or fewer,
// collapse whitespace. All-initials names yield "". Null markers such as
// "nan" are the importer's concern (see importer.Row); here "Nan" is a
// name like any other.
func Normalize(raw string) string {
	kept := make([]string, 0, 4)
	for _, f := range nameTokens(raw) {
		if len([]rune(f)) >= minTokenLen {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// ArchiveKey is the variant key used when a canonical name is replaced.
// It is Normalize(raw) unless that drops every token, in which case the
// short tokens are kept ("K P" gives "k p") so the old name can still be
// stored. "" means raw has no letters or digits at all.
func ArchiveKey(raw string) string {
	if n := Normalize(raw); n != "" {
		return n
	}
	return strings.Join(nameTokens(raw), " ")
}

// nameTokens lowercases raw, strips everything but word runes and
// whitespace, and splits it into fields.
func nameTokens(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	s := cases.Lower(language.Und).String(norm.NFC.String(raw))
	s = strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return strings.Fields(s)
}

// isWordRune matches letters, combining marks, digits and underscore.
// Marks are kept so Malayalam vowel signs survive.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r)
}

// IsMalayalam reports whether s contains any Malayalam-script rune.
func IsMalayalam(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Malayalam, r) {
			return true
		}
	}
	return false
}
