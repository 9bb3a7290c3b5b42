// Package api serves classification lookups and exports over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Veraticus/toxref/internal/cas"
	"github.com/Veraticus/toxref/internal/engine"
	"github.com/Veraticus/toxref/internal/export"
	"github.com/Veraticus/toxref/internal/metrics"
	"github.com/Veraticus/toxref/internal/service"
	"github.com/go-chi/chi/v5"
)

var errBadRequest = errors.New("bad request")

// Download names, as the web client expects them.
const (
	mergedExportBase = "export"
	splitExportName  = "export_classifications_par_table.xlsx"
	vtrExportName    = "export_vtr.xlsx"
)

// Databases holds one opener per source database.
type Databases struct {
	Classifications service.StoreOpener
	Toxicology      service.StoreOpener
	VTR             service.StoreOpener
}

func (d Databases) byName(name string) (service.StoreOpener, bool) {
	switch name {
	case "", "classifications":
		return d.Classifications, d.Classifications != nil
	case "toxicology":
		return d.Toxicology, d.Toxicology != nil
	case "vtr":
		return d.VTR, d.VTR != nil
	default:
		return nil, false
	}
}

// LookupRequest is the body of every lookup and export endpoint.
type LookupRequest struct {
	CASNumbers      []string `json:"cas_numbers"`
	Classifications []string `json:"classifications"`
}

// Handler provides the HTTP endpoints.
type Handler struct {
	dbs     Databases
	metrics *metrics.Metrics
	logger  *slog.Logger
	engine  engine.Config
}

// NewHandler creates a Handler. m may be nil.
func NewHandler(dbs Databases, cfg engine.Config, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dbs:     dbs,
		metrics: m,
		engine:  cfg,
		logger:  logger.With("handler", "api"),
	}
}

// Routes mounts the API endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/search", h.Search)
	r.Post("/export/xlsx_split", h.ExportSplit)
	r.Post("/export/{format}", h.Export)
	r.Post("/toxicology", h.Toxicology)
	r.Post("/vtr", h.VTR)
	r.Post("/vtr_export/xlsx", h.VTRExport)
	r.Get("/sources", h.Sources)
}

// decode reads and normalizes a lookup request.
func decode(r *http.Request) (LookupRequest, error) {
	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	req.CASNumbers = cas.NormalizeAll(req.CASNumbers)
	return req, nil
}

// withEngine opens a store for the request, runs fn and closes the store.
func (h *Handler) withEngine(ctx context.Context, open service.StoreOpener, fn func(*engine.Engine) error) error {
	store, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			h.logger.Warn("failed to close source database", "error", cerr)
		}
	}()

	eng := engine.NewWithConfig(store, h.logger, h.engine)
	if h.metrics != nil {
		eng.WithObserver(h.metrics)
	}
	return fn(eng)
}

func (h *Handler) countLookups(operation string, n int) {
	if h.metrics != nil {
		h.metrics.Lookups(operation, n)
	}
}

// Search classifies each CAS number against the selected tables.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r)
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	result := map[string]any{}
	if len(req.CASNumbers) == 0 {
		respondJSON(w, http.StatusOK, result)
		return
	}

	err = h.withEngine(r.Context(), h.dbs.Classifications, func(eng *engine.Engine) error {
		for _, rec := range eng.AggregateAll(r.Context(), req.CASNumbers, req.Classifications, engine.FirstMatch) {
			result[rec.CAS] = rec
		}
		return nil
	})
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	h.countLookups("search", len(req.CASNumbers))
	respondJSON(w, http.StatusOK, result)
}

// Export writes the merged table in the format named by the path.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Format not supported"})
		return
	}
	if format.IsSplit() {
		h.ExportSplit(w, r)
		return
	}

	req, err := decode(r)
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	var buf bytes.Buffer
	err = h.withEngine(r.Context(), h.dbs.Classifications, func(eng *engine.Engine) error {
		records := eng.AggregateAll(r.Context(), req.CASNumbers, req.Classifications, engine.FirstMatch)
		sink, err := export.NewSink(format, &buf)
		if err != nil {
			return err
		}
		return sink.WriteTables(r.Context(), []service.Table{export.Merged(records)})
	})
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	h.countLookups("export", len(req.CASNumbers))
	respondFile(w, format.ContentType(), mergedExportBase+"."+format.Extension(), &buf)
}

// ExportSplit writes one sheet per selected table with every matching row.
func (h *Handler) ExportSplit(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r)
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	var buf bytes.Buffer
	err = h.withEngine(r.Context(), h.dbs.Classifications, func(eng *engine.Engine) error {
		snap := eng.Load(r.Context(), req.Classifications)
		sink := export.NewXLSXSink(&buf)
		tables := export.Split(snap, req.CASNumbers, req.Classifications, sink)
		return sink.WriteTables(r.Context(), tables)
	})
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	h.countLookups("export_split", len(req.CASNumbers))
	respondFile(w, export.FormatXLSXSplit.ContentType(), splitExportName, &buf)
}

// Toxicology digests every toxicology table matching each CAS number.
func (h *Handler) Toxicology(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r)
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	result := map[string]engine.ToxicologyEntry{}
	if len(req.CASNumbers) > 0 {
		err = h.withEngine(r.Context(), h.dbs.Toxicology, func(eng *engine.Engine) error {
			entries, err := eng.Toxicology(r.Context(), req.CASNumbers)
			if err != nil {
				return err
			}
			for _, e := range entries {
				result[e.CAS] = e
			}
			return nil
		})
		if err != nil {
			respondError(w, h.logger, statusFromError(err), err)
			return
		}
	}

	h.countLookups("toxicology", len(req.CASNumbers))
	respondJSON(w, http.StatusOK, result)
}

// VTR returns every reference-value row matching each CAS number.
func (h *Handler) VTR(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r)
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	result := map[string]engine.ReferenceEntry{}
	if len(req.CASNumbers) > 0 {
		names := h.resolveNames(r.Context(), req.CASNumbers)
		err = h.withEngine(r.Context(), h.dbs.VTR, func(eng *engine.Engine) error {
			entries, err := eng.ReferenceValues(r.Context(), req.CASNumbers, names)
			if err != nil {
				return err
			}
			for _, e := range entries {
				result[e.CAS] = e
			}
			return nil
		})
		if err != nil {
			respondError(w, h.logger, statusFromError(err), err)
			return
		}
	}

	h.countLookups("vtr", len(req.CASNumbers))
	respondJSON(w, http.StatusOK, result)
}

// resolveNames looks substance names up in the classifications database. A
// missing database only costs the names.
func (h *Handler) resolveNames(ctx context.Context, casList []string) map[string]string {
	names := map[string]string{}
	if h.dbs.Classifications == nil {
		return names
	}
	err := h.withEngine(ctx, h.dbs.Classifications, func(eng *engine.Engine) error {
		names = eng.ResolveNames(ctx, casList)
		return nil
	})
	if err != nil {
		h.logger.Warn("substance names unavailable", "error", err)
	}
	return names
}

// VTRExport writes one sheet per VTR table with every matching row.
func (h *Handler) VTRExport(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r)
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	var buf bytes.Buffer
	err = h.withEngine(r.Context(), h.dbs.VTR, func(eng *engine.Engine) error {
		snap, tables, err := eng.LoadAll(r.Context())
		if err != nil {
			return err
		}
		sink := export.NewXLSXSink(&buf)
		return sink.WriteTables(r.Context(), export.Split(snap, req.CASNumbers, tables, sink))
	})
	if err != nil {
		respondError(w, h.logger, statusFromError(err), err)
		return
	}

	h.countLookups("vtr_export", len(req.CASNumbers))
	respondFile(w, export.FormatXLSX.ContentType(), vtrExportName, &buf)
}

// Sources lists the tables of a database, classifications unless ?db= names
// another one.
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	db := r.URL.Query().Get("db")
	open, ok := h.dbs.byName(db)
	if !ok {
		respondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: unknown database %q", errBadRequest, db))
		return
	}

	store, err := open(r.Context())
	if err != nil {
		respondError(w, h.logger, http.StatusInternalServerError, fmt.Errorf("failed to open source database: %w", err))
		return
	}
	defer func() { _ = store.Close() }()

	tables, err := store.Tables(r.Context())
	if err != nil {
		respondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, tables)
}
