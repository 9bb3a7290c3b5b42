// Package model defines the core domain models used throughout the application.
package model

import (
	"encoding/json"
	"sort"
)

// HazardCategory is one of the canonical hazard flags derived for a substance.
type HazardCategory string

// CMR categories.
const (
	Carcinogen HazardCategory = "Carcinogen"
	Mutagen    HazardCategory = "Mutagen"
	Reprotoxic HazardCategory = "Reprotoxic"
)

// PE/Sens categories.
const (
	PersistentEndocrine   HazardCategory = "PersistentEndocrine"
	RespiratorySensitizer HazardCategory = "RespiratorySensitizer"
	SkinSensitizer        HazardCategory = "SkinSensitizer"
)

// NotFound is the single source entry reported when no table matched.
const NotFound = "not found"

// CMRCategories lists the CMR group in display order.
var CMRCategories = []HazardCategory{Carcinogen, Mutagen, Reprotoxic}

// PESensCategories lists the PE/Sens group in display order.
var PESensCategories = []HazardCategory{PersistentEndocrine, RespiratorySensitizer, SkinSensitizer}

var categoryLabels = map[HazardCategory]string{
	Carcinogen:            "Cancérogène",
	Mutagen:               "Mutagène",
	Reprotoxic:            "Reprotox.",
	PersistentEndocrine:   "PE",
	RespiratorySensitizer: "Sens. Resp.",
	SkinSensitizer:        "Sens. Cut.",
}

// IsCMR reports whether the category belongs to the CMR group.
func (c HazardCategory) IsCMR() bool {
	return c == Carcinogen || c == Mutagen || c == Reprotoxic
}

// Label returns the short label shown to users.
func (c HazardCategory) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// CategorySet is a set of hazard flags that are true for a substance.
type CategorySet map[HazardCategory]bool

// Set marks the category as present.
func (s CategorySet) Set(c HazardCategory) {
	s[c] = true
}

// Has reports whether the category is present.
func (s CategorySet) Has(c HazardCategory) bool {
	return s[c]
}

// Sorted returns the present categories in name order.
func (s CategorySet) Sorted() []HazardCategory {
	out := make([]HazardCategory, 0, len(s))
	for c, ok := range s {
		if ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON always emits an object, never null.
func (s CategorySet) MarshalJSON() ([]byte, error) {
	m := make(map[HazardCategory]bool, len(s))
	for c, ok := range s {
		if ok {
			m[c] = true
		}
	}
	return json.Marshal(m)
}
