package model

// Well-known column names shared by every source table.
const (
	ColumnCAS           = "CAS"
	ColumnSubstanceName = "Substance Name"
)

// Field is a single cell of a source row.
type Field struct {
	Name  string
	Value string
	Null  bool
}

// SourceRow is one physical record read from a source table. Columns keep
// the order the store reported them in; the set of columns is defined by the
// source, not by this package.
type SourceRow struct {
	Fields []Field
}

// NewSourceRow builds a row from parallel column and value slices. A nil
// value pointer marks the cell as NULL.
func NewSourceRow(columns []string, values []*string) SourceRow {
	fields := make([]Field, len(columns))
	for i, col := range columns {
		fields[i] = Field{Name: col, Null: true}
		if i < len(values) && values[i] != nil {
			fields[i].Value = *values[i]
			fields[i].Null = false
		}
	}
	return SourceRow{Fields: fields}
}

// RowOf is a test and fixture helper that builds a row from alternating
// column/value pairs.
func RowOf(pairs ...string) SourceRow {
	fields := make([]Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields = append(fields, Field{Name: pairs[i], Value: pairs[i+1]})
	}
	return SourceRow{Fields: fields}
}

// Get returns the value of the named column. ok is false when the column is
// missing or NULL.
func (r SourceRow) Get(column string) (value string, ok bool) {
	for _, f := range r.Fields {
		if f.Name == column {
			if f.Null {
				return "", false
			}
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the named column, or "" when missing or NULL.
func (r SourceRow) Value(column string) string {
	v, _ := r.Get(column)
	return v
}

// Has reports whether the row carries the named column at all.
func (r SourceRow) Has(column string) bool {
	for _, f := range r.Fields {
		if f.Name == column {
			return true
		}
	}
	return false
}

// Columns returns the column names in store order.
func (r SourceRow) Columns() []string {
	cols := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		cols[i] = f.Name
	}
	return cols
}

// CAS returns the raw CAS cell of the row.
func (r SourceRow) CAS() string {
	return r.Value(ColumnCAS)
}

// Map converts the row into a column → value map. NULL cells map to nil so
// they serialize as JSON null.
func (r SourceRow) Map() map[string]any {
	m := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		if f.Null {
			m[f.Name] = nil
			continue
		}
		m[f.Name] = f.Value
	}
	return m
}
