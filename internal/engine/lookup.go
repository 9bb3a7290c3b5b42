package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/toxref/internal/classification"
	"github.com/Veraticus/toxref/internal/model"
)

// digestSeparator joins cell values in a toxicology digest.
const digestSeparator = " | "

// ToxicologyEntry is the per-CAS result of a toxicology lookup: for every
// table with a match, a digest of its non-placeholder values.
type ToxicologyEntry struct {
	Details map[string]string `json:"details"`
	CAS     string            `json:"cas"`
	Sources []string          `json:"sources"`
}

// ReferenceEntry is the per-CAS result of a reference-value lookup, keeping
// every matching row of every table.
type ReferenceEntry struct {
	Details       map[string]model.TableMatch `json:"details"`
	CAS           string                      `json:"cas"`
	SubstanceName string                      `json:"substanceName,omitempty"`
	Sources       []string                    `json:"sources"`
}

// LoadAll reads every table of the store.
func (e *Engine) LoadAll(ctx context.Context) (*Snapshot, []string, error) {
	tables, err := e.store.Tables(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list source tables: %w", err)
	}
	return e.Load(ctx, tables), tables, nil
}

// Toxicology scans every table of the store in first-match mode.
func (e *Engine) Toxicology(ctx context.Context, casList []string) ([]ToxicologyEntry, error) {
	snap, tables, err := e.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ToxicologyEntry, len(casList))
	for i, c := range casList {
		entry := ToxicologyEntry{CAS: c, Sources: []string{}, Details: map[string]string{}}
		for _, table := range tables {
			rows := snap.Match(table, c, FirstMatch)
			if len(rows) == 0 {
				continue
			}
			entry.Sources = append(entry.Sources, model.SourceLabel(table))
			entry.Details[table] = digest(rows[0])
		}
		if len(entry.Sources) == 0 {
			entry.Sources = []string{model.NotFound}
		}
		entries[i] = entry
	}
	return entries, nil
}

// digest joins the meaningful values of a row, leaving out identifier
// columns.
func digest(row model.SourceRow) string {
	parts := make([]string, 0, len(row.Fields))
	for _, f := range row.Fields {
		switch strings.ToLower(f.Name) {
		case "cas", "cid":
			continue
		}
		v := strings.TrimSpace(f.Value)
		if f.Null || classification.IsNamePlaceholder(v) {
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, digestSeparator)
}

// ReferenceValues scans every table of the store in all-matches mode. names
// supplies substance names, usually resolved from the classification store.
func (e *Engine) ReferenceValues(ctx context.Context, casList []string, names map[string]string) ([]ReferenceEntry, error) {
	snap, tables, err := e.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ReferenceEntry, len(casList))
	for i, c := range casList {
		rec := snap.Aggregate(c, tables, AllMatches)
		entries[i] = ReferenceEntry{
			CAS:           c,
			SubstanceName: names[c],
			Sources:       rec.Sources,
			Details:       rec.Matches,
		}
	}
	return entries, nil
}
