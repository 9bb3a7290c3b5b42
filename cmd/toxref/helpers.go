package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/toxref/internal/cli"
	"github.com/Veraticus/toxref/internal/common"
	"github.com/Veraticus/toxref/internal/config"
	"github.com/Veraticus/toxref/internal/engine"
	"github.com/Veraticus/toxref/internal/service"
	"github.com/Veraticus/toxref/internal/storage"
	"github.com/spf13/cobra"
)

// Output formats of the lookup commands.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// app carries what every command needs once the configuration is read.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}
	return &app{cfg: cfg, logger: slog.Default()}, nil
}

// openStore opens the named database read-only.
func (a *app) openStore(ctx context.Context, name string, opts ...storage.Option) (service.Store, error) {
	path, err := a.cfg.Database(name)
	if err != nil {
		return nil, err
	}
	opts = append([]storage.Option{storage.WithLogger(a.logger)}, opts...)
	store, err := storage.Opener(path, opts...)(ctx)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("cannot open the %s database", name), err)
	}
	return store, nil
}

func (a *app) engine(store service.Store) *engine.Engine {
	return engine.NewWithConfig(store, a.logger, engine.Config{Parallelism: a.cfg.Engine.Parallelism})
}

func closeStore(store service.Store) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// addLookupFlags registers the flags shared by commands taking CAS numbers.
func addLookupFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "read CAS numbers from a file (- for stdin)")
}

// addSourceFlags registers the source table selection flag.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("sources", "s", nil, "source tables to search (default: every table)")
}

// casArgs gathers the CAS numbers of a command from its arguments and --file.
func casArgs(cmd *cobra.Command, args []string) ([]string, error) {
	file, _ := cmd.Flags().GetString("file")
	list, err := cli.CollectCAS(args, file, cmd.InOrStdin())
	if err != nil {
		return nil, common.NewUserError("cannot read CAS numbers", err)
	}
	if len(list) == 0 {
		return nil, common.NewUserError("give CAS numbers as arguments or with --file", common.ErrNoCASNumbers)
	}
	return list, nil
}

// selectedSources returns the --sources tables, or every table of store when
// none was given.
func selectedSources(ctx context.Context, cmd *cobra.Command, store service.Store) ([]string, error) {
	sources, _ := cmd.Flags().GetStringSlice("sources")
	sources = trimAll(sources)
	if len(sources) > 0 {
		return sources, nil
	}
	tables, err := store.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source tables: %w", err)
	}
	if len(tables) == 0 {
		return nil, common.NewUserError("the database holds no source table", common.ErrNoSources)
	}
	return tables, nil
}

func trimAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// loadCount is the number of tables read when aggregating tables, name
// tables included.
func loadCount(tables []string) int {
	seen := map[string]struct{}{}
	for _, t := range append(append([]string{}, tables...), engine.NamePriority...) {
		seen[t] = struct{}{}
	}
	return len(seen)
}

// outputFormat validates the --output flag.
func outputFormat(cmd *cobra.Command) (string, error) {
	out, _ := cmd.Flags().GetString("output")
	switch out {
	case outputTable, outputJSON:
		return out, nil
	default:
		return "", common.NewUserError(fmt.Sprintf("unknown output format %q (table or json)", out), common.ErrInvalidConfig)
	}
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputTable, "output format (table, json)")
}

// progress draws a table progress bar on stderr for table output only.
func progress(cmd *cobra.Command, format string, total int) *cli.TableProgress {
	if format != outputTable || total == 0 {
		return nil
	}
	return cli.NewTableProgress(cmd.ErrOrStderr(), total, "Reading sources")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// createOutput opens the export target, stdout for "-".
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return nil, nil, common.NewUserError("cannot create output file", err)
	}
	return f, f.Close, nil
}
