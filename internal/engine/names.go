package engine

import (
	"context"
	"strings"

	"github.com/Veraticus/toxref/internal/cas"
	"github.com/Veraticus/toxref/internal/classification"
	"github.com/Veraticus/toxref/internal/model"
)

// NamePriority is the order in which tables are consulted for a substance
// name. The first usable name wins.
var NamePriority = []string{"CLP", "GHS_Australia", "GHS_Japan", "GHS_Korea", "GHS_China"}

// ResolveName returns the display name of casID, or "" when no priority
// table carries a usable one. Tables may have been loaded in any order; the
// choice is made here, in priority order.
func (s *Snapshot) ResolveName(casID string) string {
	for _, table := range NamePriority {
		for _, row := range s.tables[table] {
			if !cas.CellContains(row.CAS(), casID) {
				continue
			}
			name, ok := row.Get(model.ColumnSubstanceName)
			if !ok || classification.IsNamePlaceholder(name) {
				continue
			}
			return strings.TrimSpace(name)
		}
	}
	return ""
}

// ResolveNames loads the name tables once and resolves every CAS number.
func (e *Engine) ResolveNames(ctx context.Context, casList []string) map[string]string {
	snap := e.Load(ctx, NamePriority)
	names := make(map[string]string, len(casList))
	for _, c := range casList {
		if name := snap.ResolveName(c); name != "" {
			names[c] = name
		}
	}
	return names
}
