package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/toxref/internal/service"
	"github.com/xuri/excelize/v2"
)

// MaxSheetNameLength is the longest worksheet name Excel accepts.
const MaxSheetNameLength = 31

const defaultSheet = "Sheet1"

// fallbackSheetName replaces names left empty after cleaning.
const fallbackSheetName = "Sheet"

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// XLSXSink writes tables as worksheets of one workbook.
type XLSXSink struct {
	w io.Writer
}

// NewXLSXSink creates a sink writing the workbook to w.
func NewXLSXSink(w io.Writer) *XLSXSink {
	return &XLSXSink{w: w}
}

// MaxTableNameLength implements service.TableSink.
func (s *XLSXSink) MaxTableNameLength() int {
	return MaxSheetNameLength
}

// TableName implements service.TableSink. Characters Excel forbids become
// underscores and single quotes are trimmed from both ends.
func (s *XLSXSink) TableName(name string) string {
	name = strings.Trim(sheetNameReplacer.Replace(name), "'")
	name = strings.TrimRight(truncate(name, MaxSheetNameLength), "'")
	if name == "" {
		return fallbackSheetName
	}
	return name
}

// WriteTables writes one sheet per table with a bold, frozen header row. An
// empty table list yields a workbook with a single blank sheet. Two tables
// that clean to the same name fail with ErrDuplicateTable.
func (s *XLSXSink) WriteTables(ctx context.Context, tables []service.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	seen := make(map[string]struct{}, len(tables))
	for i, table := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := s.TableName(table.Name)
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateTable, name)
		}
		seen[name] = struct{}{}
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", name, err)
		}

		if err := writeSheet(f, name, table, header); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", name, err)
		}
	}

	if err := f.Write(s.w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, table service.Table, headerStyle int) error {
	columns := table.Columns
	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
