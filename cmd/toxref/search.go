package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/toxref/internal/cli"
	"github.com/Veraticus/toxref/internal/engine"
	"github.com/Veraticus/toxref/internal/model"
	"github.com/Veraticus/toxref/internal/tui"
	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [CAS...]",
		Short: "Classify substances against the source tables",
		Long: `Search every given CAS number in the selected source tables and derive its
CMR and PE/Sens hazard flags. Only the first matching row of each table is used.`,
		Example: `  toxref search 50-00-0 64-17-5
  toxref search --sources CLP,IARC --output json 50-00-0
  toxref search --file substances.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, engine.FirstMatch)
		},
	}
	addLookupFlags(cmd)
	addSourceFlags(cmd)
	addOutputFlag(cmd)
	return cmd
}

func detailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detail [CAS...]",
		Short: "Show every matching row of every source table",
		Long: `Like search, but keeps every row of a table that lists the CAS number
instead of only the first one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, engine.AllMatches)
		},
	}
	addLookupFlags(cmd)
	addSourceFlags(cmd)
	addOutputFlag(cmd)
	return cmd
}

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [CAS...]",
		Short: "Browse search results interactively",
		RunE:  runBrowse,
	}
	addLookupFlags(cmd)
	addSourceFlags(cmd)
	return cmd
}

// classify runs a search against the classifications database.
func classify(ctx context.Context, cmd *cobra.Command, casList []string, mode engine.MatchMode, format string) ([]model.ClassificationRecord, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	store, err := a.openStore(ctx, "classifications")
	if err != nil {
		return nil, err
	}
	defer closeStore(store)

	tables, err := selectedSources(ctx, cmd, store)
	if err != nil {
		return nil, err
	}

	bar := progress(cmd, format, loadCount(tables))
	records := a.engine(store).
		WithProgress(bar.Done).
		AggregateAll(ctx, casList, tables, mode)
	bar.Finish()

	return records, nil
}

func runSearch(cmd *cobra.Command, args []string, mode engine.MatchMode) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	casList, err := casArgs(cmd, args)
	if err != nil {
		return err
	}

	records, err := classify(cmd.Context(), cmd, casList, mode, format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == outputJSON {
		byCAS := make(map[string]model.ClassificationRecord, len(records))
		for _, rec := range records {
			byCAS[rec.CAS] = rec
		}
		return writeJSON(out, byCAS)
	}

	for _, rec := range records {
		if _, err := fmt.Fprintln(out, cli.RenderRecord(rec)); err != nil {
			return err
		}
	}
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	casList, err := casArgs(cmd, args)
	if err != nil {
		return err
	}
	records, err := classify(cmd.Context(), cmd, casList, engine.FirstMatch, outputTable)
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), records, tui.WithTitle(fmt.Sprintf("%s %d substances", cli.FlaskIcon, len(records))))
}
