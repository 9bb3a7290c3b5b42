package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/toxref/internal/api"
	"github.com/Veraticus/toxref/internal/engine"
	"github.com/Veraticus/toxref/internal/metrics"
	"github.com/Veraticus/toxref/internal/service"
	"github.com/Veraticus/toxref/internal/storage"
	"github.com/Veraticus/toxref/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testServer struct {
	handler http.Handler
	opens   *atomic.Int32
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, opts api.RouterOptions) testServer {
	t.Helper()

	classifications := testutil.NewFixture(t).Named("Classifications.db").
		WithTable("IARC", []string{"CAS", "Agent", "Group"},
			[]any{"50-00-0", "Formaldehyde", "1"},
			[]any{"64-17-5", "Ethanol", "3"},
		).
		WithTable("CLP", []string{"CAS", "Substance Name", "Carcinogenicity", "Skin sensitization"},
			[]any{"50-00-0", "Formaldehyde", "Carc. 1B", "Skin Sens. 1"},
			[]any{"50-00-0", "Formaldehyde", "Carc. 2", nil},
		).
		Build()
	toxicology := testutil.NewFixture(t).Named("Toxicology.db").
		WithTable("Acute", []string{"CAS", "CID", "LD50", "Route"}, []any{"50-00-0", "712", "100 mg/kg", "oral"}).
		Build()
	vtr := testutil.NewFixture(t).Named("VTR.db").
		WithTable("ANSES_VTR", []string{"CAS", "Type", "Value"},
			[]any{"50-00-0", "inhalation", "0.123"},
			[]any{"50-00-0", "oral", "0.2"},
		).
		Build()

	opens := &atomic.Int32{}
	counting := func(path string) service.StoreOpener {
		open := storage.Opener(path)
		return func(ctx context.Context) (service.Store, error) {
			opens.Add(1)
			return open(ctx)
		}
	}

	m := metrics.New()
	h := api.NewHandler(api.Databases{
		Classifications: counting(classifications),
		Toxicology:      counting(toxicology),
		VTR:             counting(vtr),
	}, engine.DefaultConfig(), m, nil)
	opts.Metrics = m

	return testServer{handler: api.NewRouter(h, opts), opens: opens, metrics: m}
}

func (s testServer) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/search", `{"cas_numbers": ["50–00–0", "7732-18-5"], "classifications": ["IARC", "CLP", "Missing"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]struct {
		CAS           string                       `json:"cas"`
		SubstanceName string                       `json:"substanceName"`
		CMR           map[string]bool              `json:"cmr"`
		PESens        map[string]bool              `json:"peSens"`
		Sources       []string                     `json:"sources"`
		Details       map[string]map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)

	formaldehyde := body["50-00-0"]
	assert.Equal(t, "Formaldehyde", formaldehyde.SubstanceName)
	assert.Equal(t, []string{"IARC", "CLP"}, formaldehyde.Sources)
	assert.Len(t, formaldehyde.CMR, 1)
	assert.Len(t, formaldehyde.PESens, 1)
	assert.Equal(t, map[string]string{"Group": "1"}, formaldehyde.Details["IARC"])
	assert.Equal(t, "Carc. 1B", formaldehyde.Details["CLP"]["Carcinogenicity"])

	water := body["7732-18-5"]
	assert.Equal(t, []string{"not found"}, water.Sources)
	assert.Empty(t, water.CMR)
	assert.NotNil(t, water.Details)
}

func TestSearch_EmptyRequest(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/search", `{"cas_numbers": [], "classifications": ["IARC"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
	assert.Zero(t, srv.opens.Load())
}

func TestSearch_BadJSON(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/search", `{"cas_numbers": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestExport_CSV(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/export/csv", `{"cas_numbers": ["50-00-0", "64-17-5"], "classifications": ["IARC", "CLP"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="export.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t,
		"CAS,Nom,CLP_Carcinogenicity,CLP_Skin sensitization,IARC_Group\n"+
			"50-00-0,Formaldehyde,Carc. 1B,Skin Sens. 1,1\n"+
			"64-17-5,,,,3\n",
		rec.Body.String())
}

func TestExport_XLSX(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/export/xlsx", `{"cas_numbers": ["50-00-0"], "classifications": ["IARC"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="export.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"CAS", "Nom", "IARC_Group"}, {"50-00-0", "Formaldehyde", "1"}}, rows)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/export/pdf", `{"cas_numbers": ["50-00-0"], "classifications": ["IARC"]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Format not supported"}`, rec.Body.String())
	assert.Zero(t, srv.opens.Load(), "the store is never opened")
}

func TestExportSplit(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/export/xlsx_split", `{"cas_numbers": ["50-00-0"], "classifications": ["CLP", "IARC"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="export_classifications_par_table.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"CLP", "IARC"}, f.GetSheetList())
	clp, err := f.GetRows("CLP")
	require.NoError(t, err)
	assert.Len(t, clp, 3, "header plus both matching rows")
	iarc, err := f.GetRows("IARC")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"CAS", "Group"}, {"50-00-0", "1"}}, iarc)
}

func TestToxicology(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/toxicology", `{"cas_numbers": ["50-00-0", "7732-18-5"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]engine.ToxicologyEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Acute"}, body["50-00-0"].Sources)
	assert.Equal(t, "100 mg/kg | oral", body["50-00-0"].Details["Acute"])
	assert.Equal(t, []string{"not found"}, body["7732-18-5"].Sources)
}

func TestVTR(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/vtr", `{"cas_numbers": ["50-00-0"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]struct {
		SubstanceName string   `json:"substanceName"`
		Sources       []string `json:"sources"`
		Details       map[string]struct {
			Columns []string         `json:"columns"`
			Rows    []map[string]any `json:"rows"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	entry := body["50-00-0"]
	assert.Equal(t, "Formaldehyde", entry.SubstanceName)
	assert.Equal(t, []string{"ANSES VTR"}, entry.Sources)
	assert.Equal(t, []string{"CAS", "Type", "Value"}, entry.Details["ANSES_VTR"].Columns)
	require.Len(t, entry.Details["ANSES_VTR"].Rows, 2)
	assert.Equal(t, "oral", entry.Details["ANSES_VTR"].Rows[1]["Type"])
}

func TestVTRExport(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	rec := srv.post(t, "/api/vtr_export/xlsx", `{"cas_numbers": ["50-00-0"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="export_vtr.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"ANSES_VTR"}, f.GetSheetList())
}

func TestSources(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	tests := []struct {
		query    string
		wantCode int
		want     string
	}{
		{query: "", wantCode: http.StatusOK, want: `["CLP", "IARC"]`},
		{query: "?db=vtr", wantCode: http.StatusOK, want: `["ANSES_VTR"]`},
		{query: "?db=inventory", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.want != "" {
				assert.JSONEq(t, tt.want, rec.Body.String())
			}
		})
	}
}

func TestStoreOpenFailure(t *testing.T) {
	h := api.NewHandler(api.Databases{
		Classifications: func(context.Context) (service.Store, error) {
			return nil, errors.New("unable to open database file")
		},
	}, engine.DefaultConfig(), nil, nil)
	router := api.NewRouter(h, api.RouterOptions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"cas_numbers": ["50-00-0"], "classifications": ["IARC"]}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to open source database")
}

func TestMiddleware(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{CORSOrigins: []string{"https://tox.example.org"}})

	t.Run("request id is generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, rec.Header().Get(api.RequestIDHeader), 36)
	})

	t.Run("request id is propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(api.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(api.RequestIDHeader))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
		req.Header.Set("Origin", "https://tox.example.org")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://tox.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		srv.post(t, "/api/search", `{"cas_numbers": ["50-00-0"], "classifications": ["IARC"]}`)

		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `toxref_lookups_total{operation="search"} 1`)
		assert.Contains(t, rec.Body.String(), `route="/api/search"`)
	})
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))
	srv := newTestServer(t, api.RouterOptions{StaticDir: dir})

	tests := map[string]string{
		"/":             "<html>app</html>",
		"/app.js":       "console.log(1)",
		"/results/deep": "<html>app</html>",
	}
	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, want, strings.TrimSpace(rec.Body.String()))
		})
	}
}
