// Package engine aggregates regulatory source tables into per-substance
// hazard classification records.
package engine

import (
	"context"
	"log/slog"

	"github.com/Veraticus/toxref/internal/cas"
	"github.com/Veraticus/toxref/internal/classification"
	"github.com/Veraticus/toxref/internal/model"
	"github.com/Veraticus/toxref/internal/service"
	"golang.org/x/sync/errgroup"
)

// MatchMode selects how many rows of one table may match a CAS number.
type MatchMode int

const (
	// FirstMatch stops scanning a table at its first matching row. Later
	// duplicates of the same CAS in that table are ignored.
	FirstMatch MatchMode = iota
	// AllMatches keeps every matching row of every table.
	AllMatches
)

func (m MatchMode) String() string {
	if m == AllMatches {
		return "all-matches"
	}
	return "first-match"
}

// Observer receives events that the engine otherwise only logs.
type Observer interface {
	RuleFailed(table string, err error)
}

// Config holds configuration options for the engine.
type Config struct {
	// Parallelism bounds concurrent table reads within one request.
	Parallelism int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Parallelism: 4}
}

// Engine reads source tables from one store and builds classification
// records. It is request-scoped: it lives as long as its store.
type Engine struct {
	store       service.Store
	logger      *slog.Logger
	observer    Observer
	rules       *classification.RuleSet
	progress    func(table string)
	parallelism int
}

// New creates an engine over store with the default configuration.
func New(store service.Store, logger *slog.Logger) *Engine {
	return NewWithConfig(store, logger, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(store service.Store, logger *slog.Logger, config Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Parallelism <= 0 {
		config.Parallelism = DefaultConfig().Parallelism
	}
	return &Engine{
		store:       store,
		logger:      logger.With("component", "engine"),
		parallelism: config.Parallelism,
	}
}

// WithObserver registers an observer for rule failures.
func (e *Engine) WithObserver(o Observer) *Engine {
	e.observer = o
	return e
}

// WithRules replaces the built-in source rules.
func (e *Engine) WithRules(rules classification.RuleSet) *Engine {
	e.rules = &rules
	return e
}

// WithProgress registers a callback invoked once per table read. It may be
// called from several goroutines.
func (e *Engine) WithProgress(fn func(table string)) *Engine {
	e.progress = fn
	return e
}

// Load reads the named tables into a request-scoped snapshot. Reads run in
// parallel; a table that cannot be read contributes no rows.
func (e *Engine) Load(ctx context.Context, tables []string) *Snapshot {
	names := uniqueTables(tables)
	results := make([][]model.SourceRow, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, name := range names {
		g.Go(func() error {
			results[i] = e.store.ReadTable(gctx, name)
			if e.progress != nil {
				e.progress(name)
			}
			return nil
		})
	}
	_ = g.Wait() // reads never fail the group

	snap := &Snapshot{
		tables:   make(map[string][]model.SourceRow, len(names)),
		order:    names,
		logger:   e.logger,
		observer: e.observer,
		rules:    e.rules,
	}
	for i, name := range names {
		snap.tables[name] = results[i]
	}
	e.logger.Debug("loaded source tables", "tables", len(names))
	return snap
}

// Aggregate builds the record of one CAS number over the selected tables.
func (e *Engine) Aggregate(ctx context.Context, casID string, tables []string, mode MatchMode) model.ClassificationRecord {
	return e.AggregateAll(ctx, []string{casID}, tables, mode)[0]
}

// AggregateAll builds one record per CAS number, in query order, reading each
// table once. Substance names are resolved from NamePriority.
func (e *Engine) AggregateAll(ctx context.Context, casList []string, tables []string, mode MatchMode) []model.ClassificationRecord {
	selected := uniqueTables(tables)
	snap := e.Load(ctx, append(append([]string{}, selected...), NamePriority...))

	records := make([]model.ClassificationRecord, len(casList))
	for i, c := range casList {
		records[i] = snap.Aggregate(c, selected, mode)
		records[i].SubstanceName = snap.ResolveName(c)
	}
	return records
}

// Snapshot is the set of rows read for one request.
type Snapshot struct {
	tables   map[string][]model.SourceRow
	logger   *slog.Logger
	observer Observer
	rules    *classification.RuleSet
	order    []string
}

// NewSnapshot wraps already-read tables, mostly for tests and exporters.
func NewSnapshot(tables map[string][]model.SourceRow) *Snapshot {
	order := make([]string, 0, len(tables))
	for name := range tables {
		order = append(order, name)
	}
	return &Snapshot{tables: tables, order: order, logger: slog.Default()}
}

// Rows returns every row read for table.
func (s *Snapshot) Rows(table string) []model.SourceRow {
	return s.tables[table]
}

// Match returns the rows of table whose CAS cell lists casID, honouring mode.
func (s *Snapshot) Match(table, casID string, mode MatchMode) []model.SourceRow {
	var out []model.SourceRow
	for _, row := range s.tables[table] {
		if !cas.CellContains(row.CAS(), casID) {
			continue
		}
		out = append(out, row)
		if mode == FirstMatch {
			break
		}
	}
	return out
}

// MatchAny returns every row of table that lists any CAS of the set.
func (s *Snapshot) MatchAny(table string, set map[string]struct{}) []model.SourceRow {
	var out []model.SourceRow
	for _, row := range s.tables[table] {
		if cas.CellContainsAny(row.CAS(), set) {
			out = append(out, row)
		}
	}
	return out
}

// Aggregate correlates casID across tables, in the given order.
func (s *Snapshot) Aggregate(casID string, tables []string, mode MatchMode) model.ClassificationRecord {
	rec := model.NewClassificationRecord(casID)
	if mode == AllMatches {
		rec.Matches = map[string]model.TableMatch{}
	}

	for _, table := range uniqueTables(tables) {
		rows := s.Match(table, casID, mode)
		if len(rows) == 0 {
			continue
		}

		rec.Sources = append(rec.Sources, model.SourceLabel(table))
		rec.Details[table] = map[string]string{}
		for _, row := range rows {
			s.apply(&rec, table, row)
		}

		if mode == AllMatches {
			match := model.TableMatch{Columns: rows[0].Columns()}
			for _, row := range rows {
				match.Rows = append(match.Rows, row.Map())
			}
			rec.Matches[table] = match
		}
	}

	if len(rec.Sources) == 0 {
		rec.Sources = []string{model.NotFound}
	}
	return rec
}

// apply folds one matching row into the record. When several rows of a
// table match, the first value seen for a column is kept.
func (s *Snapshot) apply(rec *model.ClassificationRecord, table string, row model.SourceRow) {
	var d classification.Derivation
	if s.rules != nil {
		d = s.rules.Derive(table, row)
	} else {
		d = classification.Derive(table, row)
	}
	for _, c := range d.Categories {
		rec.Flag(c)
	}
	for _, err := range d.Errors {
		s.logger.Warn("source rule failed", "table", table, "cas", rec.CAS, "error", err)
		if s.observer != nil {
			s.observer.RuleFailed(table, err)
		}
	}

	details := rec.Details[table]
	for _, f := range row.Fields {
		if !classification.IsDetailColumn(table, f.Name) || !classification.IsClassified(f.Value, !f.Null) {
			continue
		}
		if _, seen := details[f.Name]; !seen {
			details[f.Name] = f.Value
		}
	}
}

// uniqueTables drops empty and repeated identifiers, keeping first-seen order.
func uniqueTables(tables []string) []string {
	seen := make(map[string]struct{}, len(tables))
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
