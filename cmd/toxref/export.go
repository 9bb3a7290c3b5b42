package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/toxref/internal/cli"
	"github.com/Veraticus/toxref/internal/common"
	"github.com/Veraticus/toxref/internal/config"
	"github.com/Veraticus/toxref/internal/engine"
	"github.com/Veraticus/toxref/internal/export"
	"github.com/Veraticus/toxref/internal/service"
	"github.com/Veraticus/toxref/internal/sheets"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [CAS...]",
		Short: "Export classifications to CSV, Excel or Google Sheets",
		Long: `Export the classification of the given substances.

Formats:
  csv         one merged table, one row per substance
  xlsx        the merged table as an Excel workbook
  xlsx_split  one sheet per source table with every matching row

With --sheets the tables are written to Google Sheets instead of a file.`,
		Example: `  toxref export --format xlsx --out result.xlsx 50-00-0 64-17-5
  toxref export --format xlsx_split --sources CLP,IARC --file list.txt --out tables.xlsx
  toxref export --format csv 50-00-0 > result.csv
  toxref export --sheets --format xlsx_split --file list.txt`,
		RunE: runExport,
	}

	addLookupFlags(cmd)
	addSourceFlags(cmd)
	cmd.Flags().String("format", string(export.FormatXLSX), "export format (csv, xlsx, xlsx_split)")
	cmd.Flags().String("out", "", "output file (default: stdout)")
	cmd.Flags().Bool("sheets", false, "write to Google Sheets")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	name, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(name)
	if err != nil {
		return common.NewUserError("choose csv, xlsx or xlsx_split", err)
	}
	casList, err := casArgs(cmd, args)
	if err != nil {
		return err
	}
	toSheets, _ := cmd.Flags().GetBool("sheets")

	a, err := newApp()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx, "classifications")
	if err != nil {
		return err
	}
	defer closeStore(store)

	tables, err := selectedSources(ctx, cmd, store)
	if err != nil {
		return err
	}

	if toSheets {
		writer, err := newSheetsWriter(ctx, a)
		if err != nil {
			return err
		}
		if err := writeExport(ctx, a.engine(store), writer, format, casList, tables); err != nil {
			return err
		}
		cmd.PrintErrln(cli.FormatSuccess(fmt.Sprintf("Exported %d substances to Google Sheets", len(casList))))
		return nil
	}

	out, _ := cmd.Flags().GetString("out")
	w, closeOut, err := createOutput(cmd, out)
	if err != nil {
		return err
	}
	sink, err := export.NewSink(format, w)
	if err != nil {
		_ = closeOut()
		return err
	}
	if err := writeExport(ctx, a.engine(store), sink, format, casList, tables); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if out != "" && out != "-" {
		cmd.PrintErrln(cli.FormatSuccess(fmt.Sprintf("Exported %d substances to %s", len(casList), out)))
	}
	return nil
}

// writeExport builds the tables of format and hands them to sink.
func writeExport(ctx context.Context, eng *engine.Engine, sink service.TableSink, format export.Format, casList, tables []string) error {
	var out []service.Table
	if format.IsSplit() {
		snap := eng.Load(ctx, tables)
		out = export.Split(snap, casList, tables, sink)
	} else {
		records := eng.AggregateAll(ctx, casList, tables, engine.FirstMatch)
		out = []service.Table{export.Merged(records)}
	}
	if err := sink.WriteTables(ctx, out); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

func newSheetsWriter(ctx context.Context, a *app) (*sheets.Writer, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, common.NewUserError("Google Sheets is not configured; run 'toxref auth sheets' first", err)
	}
	writer, err := sheets.NewWriter(ctx, *cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets writer: %w", err)
	}
	return writer, nil
}
