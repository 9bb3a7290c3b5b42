// Package storage provides read-only access to the regulatory source tables.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Storage errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrTableNotFound    = errors.New("table not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDatabaseFile checks that path names an existing regular file.
// Read-only opens never create the database.
func validateDatabaseFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s does not exist", ErrStoreUnavailable, path)
	case err != nil:
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, path, err)
	case info.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrStoreUnavailable, path)
	}
	return nil
}

// quoteIdent quotes a table name for SQL. Names reach it only after they
// were found in sqlite_master.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
