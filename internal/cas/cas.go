// Package cas normalizes CAS registry numbers and matches them against
// multi-value source cells.
package cas

import "strings"

// dashReplacer maps the dash glyphs found in source spreadsheets to an ASCII
// hyphen and drops double quotes.
var dashReplacer = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"‐", "-", // hyphen
	`"`, "",
)

// Normalize returns the canonical form of a CAS string. It is idempotent.
// An empty result never matches a real CAS number.
func Normalize(raw string) string {
	return strings.TrimSpace(dashReplacer.Replace(raw))
}

func isSeparator(r rune) bool {
	switch r {
	case ';', ',', '\n', '/':
		return true
	}
	return false
}

// ExtractCandidates splits a cell that may hold several CAS numbers and
// normalizes each one. Empty candidates are dropped.
func ExtractCandidates(cell string) []string {
	if cell == "" {
		return []string{}
	}
	parts := strings.FieldsFunc(cell, isSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// CellContains reports whether the cell lists the given normalized CAS.
func CellContains(cell, cas string) bool {
	if cas == "" {
		return false
	}
	for _, c := range ExtractCandidates(cell) {
		if c == cas {
			return true
		}
	}
	return false
}

// CellContainsAny reports whether the cell lists any CAS of the set.
func CellContainsAny(cell string, set map[string]struct{}) bool {
	for _, c := range ExtractCandidates(cell) {
		if _, ok := set[c]; ok {
			return true
		}
	}
	return false
}

// NormalizeAll normalizes a query list, dropping empty entries and
// duplicates while keeping the first-seen order.
func NormalizeAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		n := Normalize(r)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Set builds a lookup set from normalized CAS numbers.
func Set(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, c := range list {
		set[c] = struct{}{}
	}
	return set
}
