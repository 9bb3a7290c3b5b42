// Package export turns classification results into tables and writes them to
// spreadsheet and delimited-text sinks.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/toxref/internal/service"
)

// Export errors.
var (
	ErrUnsupportedFormat = errors.New("format not supported")
	ErrMultipleTables    = errors.New("csv export holds exactly one table")
	ErrDuplicateTable    = errors.New("duplicate table name")
)

// Format names an export layout.
type Format string

// Supported formats.
const (
	FormatCSV       Format = "csv"
	FormatXLSX      Format = "xlsx"
	FormatXLSXSplit Format = "xlsx_split"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatXLSXSplit:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// IsSplit reports whether the format writes one sheet per source table.
func (f Format) IsSplit() bool {
	return f == FormatXLSXSplit
}

// ContentType is the MIME type of files written in the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension is the file extension, without the dot.
func (f Format) Extension() string {
	if f == FormatCSV {
		return "csv"
	}
	return "xlsx"
}

// NewSink returns the file sink for the format, writing to w.
func NewSink(f Format, w io.Writer) (service.TableSink, error) {
	switch f {
	case FormatCSV:
		return NewCSVSink(w), nil
	case FormatXLSX, FormatXLSXSplit:
		return NewXLSXSink(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}
