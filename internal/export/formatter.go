package export

import (
	"fmt"
	"sort"

	"github.com/Veraticus/toxref/internal/cas"
	"github.com/Veraticus/toxref/internal/classification"
	"github.com/Veraticus/toxref/internal/model"
	"github.com/Veraticus/toxref/internal/service"
)

// Merged export layout.
const (
	MergedTableName = "Classifications"
	ColumnName      = "Nom"
)

// TableNamer is the naming side of a service.TableSink.
type TableNamer interface {
	MaxTableNameLength() int
	TableName(name string) string
}

// RowMatcher finds the rows of a table that list any CAS of a set.
type RowMatcher interface {
	MatchAny(table string, set map[string]struct{}) []model.SourceRow
}

// Merged flattens records into one table: CAS, Nom, then one column per
// {table}_{column} detail seen in any record, sorted. Every record gets a row.
func Merged(records []model.ClassificationRecord) service.Table {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for table, details := range rec.Details {
			for col := range details {
				seen[mergedColumn(table, col)] = struct{}{}
			}
		}
	}
	extra := make([]string, 0, len(seen))
	for col := range seen {
		extra = append(extra, col)
	}
	sort.Strings(extra)

	columns := append([]string{model.ColumnCAS, ColumnName}, extra...)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		values := map[string]string{}
		for table, details := range rec.Details {
			for col, v := range details {
				values[mergedColumn(table, col)] = v
			}
		}
		row := make([]string, len(columns))
		row[0] = rec.CAS
		row[1] = rec.SubstanceName
		for i, col := range extra {
			row[i+2] = values[col]
		}
		rows = append(rows, row)
	}

	return service.Table{Name: MergedTableName, Columns: columns, Rows: rows}
}

func mergedColumn(table, column string) string {
	return table + "_" + column
}

// Split builds one table per selected source with every row listing a queried
// CAS number. Excluded columns are dropped, NULL cells are blank, and sources
// without matches are omitted. Names are cleaned by namer and made unique
// within its length limit.
func Split(src RowMatcher, casList []string, tables []string, namer TableNamer) []service.Table {
	set := cas.Set(casList)
	names := newNameSet(namer)
	var out []service.Table

	for _, table := range dedupe(tables) {
		rows := src.MatchAny(table, set)
		if len(rows) == 0 {
			continue
		}

		var columns []string
		for _, col := range rows[0].Columns() {
			if !classification.IsExcluded(table, col) {
				columns = append(columns, col)
			}
		}

		grid := make([][]string, 0, len(rows))
		for _, row := range rows {
			line := make([]string, len(columns))
			for i, col := range columns {
				line[i], _ = row.Get(col)
			}
			grid = append(grid, line)
		}

		out = append(out, service.Table{Name: names.claim(table), Columns: columns, Rows: grid})
	}
	return out
}

func dedupe(tables []string) []string {
	seen := make(map[string]struct{}, len(tables))
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		if _, ok := seen[t]; ok || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// nameSet hands out unique table names in the form a sink stores them.
type nameSet struct {
	used  map[string]struct{}
	namer TableNamer
}

func newNameSet(namer TableNamer) *nameSet {
	return &nameSet{used: map[string]struct{}{}, namer: namer}
}

// claim returns the cleaned name, suffixed with ~2, ~3... on collision. A
// limit too short for any free suffix gives up after len(used)+1 tries and
// leaves the sink to reject the duplicate.
func (n *nameSet) claim(name string) string {
	base := n.namer.TableName(name)
	limit := n.namer.MaxTableNameLength()

	candidate := base
	for i := 2; i <= len(n.used)+2; i++ {
		if _, taken := n.used[candidate]; !taken {
			break
		}
		candidate = withSuffix(base, fmt.Sprintf("~%d", i), limit)
	}
	n.used[candidate] = struct{}{}
	return candidate
}

// withSuffix appends suffix to base within limit runes, keeping at least one
// rune of base and cutting the suffix when the limit leaves no room for it.
func withSuffix(base, suffix string, limit int) string {
	if limit <= 0 {
		return base + suffix
	}
	room := max(limit-len([]rune(suffix)), 1)
	return truncate(truncate(base, room)+suffix, limit)
}

// truncate cuts s to at most limit runes; limit <= 0 means no limit.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
