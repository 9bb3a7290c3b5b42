package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/toxref/internal/engine"
	"github.com/Veraticus/toxref/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// RenderRecord renders one classification record as a box.
func RenderRecord(rec model.ClassificationRecord) string {
	title := rec.CAS
	if rec.SubstanceName != "" {
		title += " · " + rec.SubstanceName
	}

	if !rec.Found() {
		return RenderBox(title, SubtleStyle.Render(model.NotFound))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("CMR:"), renderCategories(rec.CMR, HazardStyle))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("PE/Sens:"), renderCategories(rec.PESens, WarningStyle))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Sources:"), strings.Join(rec.Sources, ", "))

	for _, table := range sortedKeys(rec.Details) {
		details := rec.Details[table]
		if len(details) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", InfoStyle.Render(model.SourceLabel(table)))
		for _, col := range sortedKeys(details) {
			fmt.Fprintf(&b, "  %s: %s\n", SubtleStyle.Render(col), details[col])
		}
	}

	for _, table := range sortedKeys(rec.Matches) {
		fmt.Fprintf(&b, "\n%s\n%s", InfoStyle.Render(model.SourceLabel(table)+" (all rows)"), renderMatch(rec.Matches[table]))
	}

	return RenderBox(title, strings.TrimRight(b.String(), "\n"))
}

func renderCategories(set model.CategorySet, style lipgloss.Style) string {
	cats := set.Sorted()
	if len(cats) == 0 {
		return SubtleStyle.Render("none")
	}
	labels := make([]string, len(cats))
	for i, c := range cats {
		labels[i] = c.Label()
	}
	return style.Render(strings.Join(labels, ", "))
}

func renderMatch(m model.TableMatch) string {
	var b strings.Builder
	for i, row := range m.Rows {
		fmt.Fprintf(&b, "  #%d\n", i+1)
		for _, col := range m.Columns {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			fmt.Fprintf(&b, "    %s: %v\n", SubtleStyle.Render(col), v)
		}
	}
	return b.String()
}

// RenderToxicology renders a toxicology entry as a box.
func RenderToxicology(e engine.ToxicologyEntry) string {
	if len(e.Details) == 0 {
		return RenderBox(e.CAS, SubtleStyle.Render(model.NotFound))
	}
	var b strings.Builder
	for _, table := range sortedKeys(e.Details) {
		fmt.Fprintf(&b, "%s\n  %s\n", InfoStyle.Render(model.SourceLabel(table)), e.Details[table])
	}
	return RenderBox(e.CAS, strings.TrimRight(b.String(), "\n"))
}

// RenderReference renders a reference-value entry as a box.
func RenderReference(e engine.ReferenceEntry) string {
	title := e.CAS
	if e.SubstanceName != "" {
		title += " · " + e.SubstanceName
	}
	if len(e.Details) == 0 {
		return RenderBox(title, SubtleStyle.Render(model.NotFound))
	}
	var b strings.Builder
	for _, table := range sortedKeys(e.Details) {
		fmt.Fprintf(&b, "%s\n%s", InfoStyle.Render(model.SourceLabel(table)), renderMatch(e.Details[table]))
	}
	return RenderBox(title, strings.TrimRight(b.String(), "\n"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
