package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/toxref/internal/model"
	"github.com/Veraticus/toxref/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const defaultMaxOpenConns = 4

// FailureHook is told about every table read that failed. Unknown tables are
// skipped without calling it.
type FailureHook func(table string, err error)

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for degraded reads.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		s.logger = logger
	}
}

// WithFailureHook registers a hook called when ReadTable swallows an error.
func WithFailureHook(hook FailureHook) Option {
	return func(s *SQLiteStore) {
		s.onFailure = hook
	}
}

// WithMaxOpenConns bounds the read pool. Values <= 0 keep the default.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxOpen = n
		}
	}
}

// SQLiteStore is a read-only view over a SQLite file whose tables are
// regulatory source tables with source-defined columns.
type SQLiteStore struct {
	db        *sql.DB
	logger    *slog.Logger
	onFailure FailureHook
	tables    map[string]struct{}
	dbPath    string
	maxOpen   int
	tablesMu  sync.Mutex
}

// NewSQLiteStore opens the database at dbPath read-only. The file must exist.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}
	if err := validateDatabaseFile(dbPath); err != nil {
		return nil, err
	}

	s := &SQLiteStore{
		dbPath:  dbPath,
		logger:  slog.Default(),
		maxOpen: defaultMaxOpenConns,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite3", buildReadOnlyDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.maxOpen)
	db.SetMaxIdleConns(s.maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, dbPath, err)
	}

	s.db = db
	return s, nil
}

// Opener returns a service.StoreOpener that opens dbPath afresh on every
// call.
func Opener(dbPath string, opts ...Option) service.StoreOpener {
	return func(ctx context.Context) (service.Store, error) {
		if err := validateContext(ctx); err != nil {
			return nil, err
		}
		return NewSQLiteStore(dbPath, opts...)
	}
}

// buildReadOnlyDSN builds a URI DSN that forbids writes at both the SQLite
// open-flag and the connection level.
func buildReadOnlyDSN(path string) string {
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("_query_only", "true")
	params.Set("_busy_timeout", "5000")
	return "file:" + uriPathEscaper.Replace(path) + "?" + params.Encode()
}

// uriPathEscaper escapes the characters SQLite's URI parser treats as
// delimiters, so the whole path names the file.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file the store reads from.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Tables lists the user tables of the database in name order.
func (s *SQLiteStore) Tables(ctx context.Context) ([]string, error) {
	set, err := s.tableSet(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// HasTable reports whether the database holds a table with that exact name.
func (s *SQLiteStore) HasTable(ctx context.Context, name string) (bool, error) {
	set, err := s.tableSet(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[name]
	return ok, nil
}

func (s *SQLiteStore) tableSet(ctx context.Context) (map[string]struct{}, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.tablesMu.Lock()
	defer s.tablesMu.Unlock()
	if s.tables != nil {
		return s.tables, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	set := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		set[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	s.tables = set
	return set, nil
}

// QueryTable reads every row of the named table. Unknown tables yield
// ErrTableNotFound; the name is only ever used once it is known to exist.
func (s *SQLiteStore) QueryTable(ctx context.Context, name string) ([]model.SourceRow, error) {
	if err := validateString(name, "table"); err != nil {
		return nil, err
	}
	exists, err := s.HasTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}

	var out []model.SourceRow
	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		values := make([]*string, len(columns))
		for i, v := range raw {
			values[i] = cellString(v)
		}
		out = append(out, model.NewSourceRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}

	return out, nil
}

// ReadTable is the tolerant form of QueryTable: a missing or unreadable table
// contributes no rows and never fails the caller.
func (s *SQLiteStore) ReadTable(ctx context.Context, name string) []model.SourceRow {
	rows, err := s.QueryTable(ctx, name)
	if err == nil {
		return rows
	}

	if errors.Is(err, ErrTableNotFound) {
		s.logger.Debug("skipping unknown source table", "table", name)
		return []model.SourceRow{}
	}

	s.logger.Warn("source table unavailable", "table", name, "error", err)
	if s.onFailure != nil {
		s.onFailure(name, err)
	}
	return []model.SourceRow{}
}

// cellString converts a scanned SQLite value to text. nil means NULL.
func cellString(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case []byte:
		s = string(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	case time.Time:
		s = val.Format(time.RFC3339)
	default:
		s = fmt.Sprint(val)
	}
	return &s
}
