// Package service defines the interfaces shared between application layers.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/toxref/internal/model"
)

// Store is the read-only contract of a source database.
type Store interface {
	// Tables enumerates the source tables the store holds.
	Tables(ctx context.Context) ([]string, error)
	// ReadTable returns every row of a table. Missing or unreadable tables
	// yield an empty slice, never an error.
	ReadTable(ctx context.Context, name string) []model.SourceRow
	Close() error
}

// StoreOpener opens a store for the duration of one request.
type StoreOpener func(ctx context.Context) (Store, error)

// Table is a named grid of text cells handed to an export sink.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// TableSink serializes tables to a spreadsheet or delimited-text target.
type TableSink interface {
	// MaxTableNameLength is the longest table/sheet name the sink accepts,
	// 0 when unlimited.
	MaxTableNameLength() int
	// TableName returns name as the sink will store it: cleaned of characters
	// the target rejects and cut to MaxTableNameLength.
	TableName(name string) string
	WriteTables(ctx context.Context, tables []Table) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
