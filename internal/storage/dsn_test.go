package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReadOnlyDSN(t *testing.T) {
	dsn := buildReadOnlyDSN("/data/Classifications.db")

	assert.True(t, strings.HasPrefix(dsn, "file:/data/Classifications.db?"))
	assert.Contains(t, dsn, "mode=ro")
	assert.Contains(t, dsn, "_query_only=true")
	assert.Contains(t, dsn, "_busy_timeout=5000")
}

func TestBuildReadOnlyDSN_EscapesURIDelimiters(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/data/lab#2.db", want: "file:/data/lab%232.db?"},
		{path: "/data/what?.db", want: "file:/data/what%3f.db?"},
		{path: "/data/100%.db", want: "file:/data/100%25.db?"},
		{path: "/data/a%23#?.db", want: "file:/data/a%2523%23%3f.db?"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			dsn := buildReadOnlyDSN(tt.path)
			assert.True(t, strings.HasPrefix(dsn, tt.want), dsn)
			assert.Equal(t, 1, strings.Count(dsn, "?"))
			assert.NotContains(t, dsn, "#")
			assert.Contains(t, dsn, "mode=ro")
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"IARC"`, quoteIdent("IARC"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}

func TestCellString(t *testing.T) {
	assert.Nil(t, cellString(nil))
	assert.Equal(t, "x", *cellString([]byte("x")))
	assert.Equal(t, "42", *cellString(int64(42)))
	assert.Equal(t, "0.5", *cellString(0.5))
	assert.Equal(t, "true", *cellString(true))
}

func TestValidateDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "VTR.db")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	assert.NoError(t, validateDatabaseFile(file))
	assert.ErrorIs(t, validateDatabaseFile(dir), ErrStoreUnavailable)
	assert.ErrorIs(t, validateDatabaseFile(filepath.Join(dir, "absent.db")), ErrStoreUnavailable)
}
