package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Veraticus/toxref/internal/service"
)

// CSVSink writes a single table as comma-separated UTF-8 text.
type CSVSink struct {
	w io.Writer
}

// NewCSVSink creates a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

// MaxTableNameLength implements service.TableSink. Table names are not
// written.
func (s *CSVSink) MaxTableNameLength() int {
	return 0
}

// TableName implements service.TableSink.
func (s *CSVSink) TableName(name string) string {
	return name
}

// WriteTables writes the header and rows of the only table. An empty list
// writes nothing.
func (s *CSVSink) WriteTables(_ context.Context, tables []service.Table) error {
	switch len(tables) {
	case 0:
		return nil
	case 1:
	default:
		return fmt.Errorf("%w: got %d", ErrMultipleTables, len(tables))
	}

	cw := csv.NewWriter(s.w)
	if err := cw.Write(tables[0].Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(tables[0].Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}
