// Package testutil builds throwaway SQLite source databases for tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/toxref/internal/storage"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type fixtureTable struct {
	name    string
	columns []string
	rows    [][]any
}

// Fixture describes a source database: tables with free-form columns, all
// declared without a type so values keep the affinity they were inserted with.
//
// Example:
//
//	store := testutil.NewFixture(t).
//		WithTable("IARC", []string{"CAS", "Agent", "Group"},
//			[]any{"50-00-0", "Formaldehyde", "1"},
//		).
//		Open()
type Fixture struct {
	t      *testing.T
	tables []fixtureTable
	name   string
}

// NewFixture starts an empty fixture.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	return &Fixture{t: t, name: "sources.db"}
}

// Named sets the database file name, for tests that build several stores.
func (f *Fixture) Named(name string) *Fixture {
	f.name = name
	return f
}

// WithTable adds a table. Each row must have one value per column; nil
// inserts NULL.
func (f *Fixture) WithTable(name string, columns []string, rows ...[]any) *Fixture {
	f.tables = append(f.tables, fixtureTable{name: name, columns: columns, rows: rows})
	return f
}

// Build writes the database into a temporary directory and returns its path.
func (f *Fixture) Build() string {
	f.t.Helper()

	path := filepath.Join(f.t.TempDir(), f.name)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		f.t.Fatalf("failed to create fixture database: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, tbl := range f.tables {
		cols := make([]string, len(tbl.columns))
		marks := make([]string, len(tbl.columns))
		for i, c := range tbl.columns {
			cols[i] = quote(c)
			marks[i] = "?"
		}

		create := "CREATE TABLE " + quote(tbl.name) + " (" + strings.Join(cols, ", ") + ")"
		if _, err := db.Exec(create); err != nil {
			f.t.Fatalf("failed to create table %q: %v", tbl.name, err)
		}

		insert := "INSERT INTO " + quote(tbl.name) + " VALUES (" + strings.Join(marks, ", ") + ")"
		for _, row := range tbl.rows {
			if len(row) != len(tbl.columns) {
				f.t.Fatalf("table %q: row has %d values, want %d", tbl.name, len(row), len(tbl.columns))
			}
			if _, err := db.Exec(insert, row...); err != nil {
				f.t.Fatalf("failed to seed table %q: %v", tbl.name, err)
			}
		}
	}

	return path
}

// Open builds the database and opens it read-only. The store is closed when
// the test ends.
func (f *Fixture) Open(opts ...storage.Option) *storage.SQLiteStore {
	f.t.Helper()

	store, err := storage.NewSQLiteStore(f.Build(), opts...)
	if err != nil {
		f.t.Fatalf("failed to open fixture store: %v", err)
	}
	f.t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
