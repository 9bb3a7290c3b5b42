package model

import "strings"

// TableMatch holds every matching row of one table, for multi-row views.
type TableMatch struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// ClassificationRecord is the unified result for one queried CAS number.
type ClassificationRecord struct {
	CMR           CategorySet                  `json:"cmr"`
	PESens        CategorySet                  `json:"peSens"`
	Details       map[string]map[string]string `json:"details"`
	Matches       map[string]TableMatch        `json:"matches,omitempty"`
	CAS           string                       `json:"cas"`
	SubstanceName string                       `json:"substanceName,omitempty"`
	Sources       []string                     `json:"sources"`
}

// NewClassificationRecord returns an empty record for the given CAS.
func NewClassificationRecord(cas string) ClassificationRecord {
	return ClassificationRecord{
		CAS:     cas,
		CMR:     CategorySet{},
		PESens:  CategorySet{},
		Details: map[string]map[string]string{},
		Sources: []string{},
	}
}

// Found reports whether any source matched.
func (r *ClassificationRecord) Found() bool {
	return len(r.Sources) > 0 && !(len(r.Sources) == 1 && r.Sources[0] == NotFound)
}

// Flag sets a hazard category in the group it belongs to.
func (r *ClassificationRecord) Flag(c HazardCategory) {
	if c.IsCMR() {
		r.CMR.Set(c)
		return
	}
	r.PESens.Set(c)
}

// SourceLabel renders a table identifier the way sources are listed to users.
func SourceLabel(table string) string {
	return strings.ReplaceAll(table, "_", " ")
}
