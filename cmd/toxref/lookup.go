package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/toxref/internal/cli"
	"github.com/Veraticus/toxref/internal/engine"
	"github.com/Veraticus/toxref/internal/export"
	"github.com/spf13/cobra"
)

func toxicologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toxicology [CAS...]",
		Short: "Summarize toxicology data sheets for substances",
		Long: `Search every table of the toxicology database and print, for each table
listing the substance, a digest of its values.`,
		RunE: runToxicology,
	}
	addLookupFlags(cmd)
	addOutputFlag(cmd)
	return cmd
}

func runToxicology(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	casList, err := casArgs(cmd, args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx, "toxicology")
	if err != nil {
		return err
	}
	defer closeStore(store)

	entries, err := a.engine(store).Toxicology(ctx, casList)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == outputJSON {
		byCAS := make(map[string]engine.ToxicologyEntry, len(entries))
		for _, e := range entries {
			byCAS[e.CAS] = e
		}
		return writeJSON(out, byCAS)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(out, cli.RenderToxicology(e)); err != nil {
			return err
		}
	}
	return nil
}

func vtrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vtr [CAS...]",
		Short: "Look up toxicity reference values",
		Long: `Search every table of the reference values database and print every
matching row. With --export, write one sheet per table to an Excel workbook
instead.`,
		Example: `  toxref vtr 50-00-0
  toxref vtr --export vtr.xlsx --file list.txt`,
		RunE: runVTR,
	}
	addLookupFlags(cmd)
	addOutputFlag(cmd)
	cmd.Flags().String("export", "", "write an Excel workbook to this file")
	return cmd
}

func runVTR(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	casList, err := casArgs(cmd, args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx, "vtr")
	if err != nil {
		return err
	}
	defer closeStore(store)
	eng := a.engine(store)

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		return exportVTR(ctx, cmd, eng, casList, path)
	}

	entries, err := eng.ReferenceValues(ctx, casList, resolveNames(ctx, a, casList))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == outputJSON {
		byCAS := make(map[string]engine.ReferenceEntry, len(entries))
		for _, e := range entries {
			byCAS[e.CAS] = e
		}
		return writeJSON(out, byCAS)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(out, cli.RenderReference(e)); err != nil {
			return err
		}
	}
	return nil
}

// resolveNames reads substance names from the classifications database. It
// returns no names when that database cannot be opened.
func resolveNames(ctx context.Context, a *app, casList []string) map[string]string {
	store, err := a.openStore(ctx, "classifications")
	if err != nil {
		a.logger.Warn("Substance names unavailable", "error", err)
		return map[string]string{}
	}
	defer closeStore(store)
	return a.engine(store).ResolveNames(ctx, casList)
}

func exportVTR(ctx context.Context, cmd *cobra.Command, eng *engine.Engine, casList []string, path string) error {
	snap, tables, err := eng.LoadAll(ctx)
	if err != nil {
		return err
	}

	w, closeOut, err := createOutput(cmd, path)
	if err != nil {
		return err
	}
	sink := export.NewXLSXSink(w)
	if err := sink.WriteTables(ctx, export.Split(snap, casList, tables, sink)); err != nil {
		_ = closeOut()
		return fmt.Errorf("export failed: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	cmd.PrintErrln(cli.FormatSuccess("Exported reference values to " + path))
	return nil
}

func sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the source tables of a database",
		RunE:  runSources,
	}
	cmd.Flags().String("db", "classifications", "database (classifications, toxicology, vtr)")
	addOutputFlag(cmd)
	return cmd
}

func runSources(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	db, _ := cmd.Flags().GetString("db")

	a, err := newApp()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx, db)
	if err != nil {
		return err
	}
	defer closeStore(store)

	tables, err := store.Tables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list source tables: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == outputJSON {
		return writeJSON(out, tables)
	}
	if _, err := fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d tables in %s", len(tables), db))); err != nil {
		return err
	}
	for _, t := range tables {
		if _, err := fmt.Fprintln(out, "  "+t); err != nil {
			return err
		}
	}
	return nil
}
