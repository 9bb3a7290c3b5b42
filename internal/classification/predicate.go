// Package classification decides which source cells are real hazard findings
// and derives canonical hazard categories from source rows.
package classification

import (
	"strings"

	"github.com/Veraticus/toxref/internal/model"
)

// unclassifiedValues are the placeholder spellings sources use for "no finding".
var unclassifiedValues = map[string]struct{}{
	"":                                {},
	"-":                               {},
	",":                               {},
	"not classified":                  {},
	"not classified (not applicable)": {},
	"classification not possible":     {},
}

// namePlaceholders are the values that never count as a substance name.
var namePlaceholders = map[string]struct{}{
	"":               {},
	"-":              {},
	"not applicable": {},
	"not classified": {},
}

// IsClassified reports whether a cell value represents a meaningful hazard
// finding. present is false for missing columns and NULL cells.
func IsClassified(value string, present bool) bool {
	if !present {
		return false
	}
	_, placeholder := unclassifiedValues[strings.ToLower(strings.TrimSpace(value))]
	return !placeholder
}

// IsClassifiedField applies IsClassified to a column of a row.
func IsClassifiedField(row model.SourceRow, column string) bool {
	v, ok := row.Get(column)
	return IsClassified(v, ok)
}

// IsNamePlaceholder reports whether a name cell carries no usable name.
func IsNamePlaceholder(name string) bool {
	_, ok := namePlaceholders[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
