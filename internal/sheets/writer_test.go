package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/toxref/internal/common"
	"github.com/Veraticus/toxref/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestTableValues(t *testing.T) {
	values := tableValues(service.Table{
		Name:    "IARC",
		Columns: []string{"CAS", "Group"},
		Rows:    [][]string{{"50-00-0", "1"}, {"71-43-2", ""}},
	})

	assert.Equal(t, [][]any{
		{"CAS", "Group"},
		{"50-00-0", "1"},
		{"71-43-2", ""},
	}, values)
}

func TestAddTabRequests(t *testing.T) {
	requests := addTabRequests(map[string]int64{"IARC": 0}, []service.Table{{Name: "IARC"}, {Name: "CLP"}})

	require.Len(t, requests, 1)
	assert.Equal(t, "CLP", requests[0].AddSheet.Properties.Title)
}

func TestFormatRequests(t *testing.T) {
	requests := formatRequests(map[string]int64{"CLP": 7}, []service.Table{
		{Name: "CLP", Columns: []string{"CAS", "Carcinogenicity"}},
		{Name: "Unknown"},
	})

	require.Len(t, requests, 3)
	assert.Equal(t, int64(7), requests[0].RepeatCell.Range.SheetId)
	assert.Equal(t, int64(2), requests[0].RepeatCell.Range.EndColumnIndex)
	assert.True(t, requests[0].RepeatCell.Cell.UserEnteredFormat.TextFormat.Bold)
	assert.Equal(t, int64(1), requests[1].UpdateSheetProperties.Properties.GridProperties.FrozenRowCount)
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'IARC'", quoteTab("IARC"))
	assert.Equal(t, "'Reviewer''s list'", quoteTab("Reviewer's list"))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	plain := errors.New("dial tcp: refused")
	assert.Same(t, plain, classify(plain))

	assert.ErrorIs(t, classify(&googleapi.Error{Code: http.StatusTooManyRequests}), common.ErrRateLimit)
	assert.True(t, common.IsRetryable(classify(&googleapi.Error{Code: http.StatusServiceUnavailable})))
	assert.False(t, common.IsRetryable(classify(&googleapi.Error{Code: http.StatusForbidden})))
}

// fakeSheetsAPI serves the handful of Sheets endpoints the writer calls.
type fakeSheetsAPI struct {
	failUpdates int
	updateCode  int
	updates     []string
	written     map[string][][]any
	nextID      int64
	mu          sync.Mutex
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-123"):
		writeJSON(w, sheets.Spreadsheet{
			SpreadsheetId: "sheet-123",
			Sheets:        []*sheets.Sheet{{Properties: &sheets.SheetProperties{SheetId: 0, Title: "IARC"}}},
		})

	case strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: "sheet-123"}
		for _, rq := range req.Requests {
			reply := &sheets.Response{}
			if rq.AddSheet != nil {
				f.nextID++
				reply.AddSheet = &sheets.AddSheetResponse{Properties: &sheets.SheetProperties{
					SheetId: f.nextID,
					Title:   rq.AddSheet.Properties.Title,
				}}
			}
			resp.Replies = append(resp.Replies, reply)
		}
		writeJSON(w, resp)

	case strings.HasSuffix(path, ":clear"):
		writeJSON(w, sheets.ClearValuesResponse{SpreadsheetId: "sheet-123"})

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		if f.failUpdates > 0 {
			f.failUpdates--
			w.WriteHeader(f.updateCode)
			_, _ = fmt.Fprint(w, `{"error":{"code":`+fmt.Sprint(f.updateCode)+`,"message":"try later"}}`)
			return
		}
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates = append(f.updates, rng)
		f.written[rng] = vr.Values
		writeJSON(w, sheets.UpdateValuesResponse{SpreadsheetId: "sheet-123"})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, batchSize int) *Writer {
	t.Helper()
	api.written = map[string][][]any{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-123"
	cfg.BatchSize = batchSize
	cfg.RetryDelay = time.Millisecond
	return newWriterWithService(svc, cfg, nil)
}

func TestWriter_WriteTables(t *testing.T) {
	api := &fakeSheetsAPI{}
	w := newTestWriter(t, api, 2)

	err := w.WriteTables(context.Background(), []service.Table{
		{Name: "IARC", Columns: []string{"CAS", "Group"}, Rows: [][]string{{"50-00-0", "1"}, {"71-43-2", "1"}}},
		{Name: "CLP", Columns: []string{"CAS"}, Rows: [][]string{{"50-00-0"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"'IARC'!A1", "'IARC'!A3", "'CLP'!A1"}, api.updates)
	assert.Equal(t, [][]any{{"CAS", "Group"}, {"50-00-0", "1"}}, api.written["'IARC'!A1"])
	assert.Equal(t, [][]any{{"71-43-2", "1"}}, api.written["'IARC'!A3"])
	assert.Equal(t, int64(1), api.nextID, "only the missing tab is added")
	assert.Equal(t, MaxTabNameLength, w.MaxTableNameLength())
}

func TestWriter_TableName(t *testing.T) {
	w := &Writer{}
	long := strings.Repeat("é", MaxTabNameLength+5)

	assert.Equal(t, "IARC", w.TableName("  IARC "))
	assert.Equal(t, strings.Repeat("é", MaxTabNameLength), w.TableName(long))
}

func TestWriter_RetriesServerErrors(t *testing.T) {
	api := &fakeSheetsAPI{failUpdates: 1, updateCode: http.StatusServiceUnavailable}
	w := newTestWriter(t, api, 100)

	err := w.WriteTables(context.Background(), []service.Table{
		{Name: "IARC", Columns: []string{"CAS"}, Rows: [][]string{{"50-00-0"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"'IARC'!A1"}, api.updates)
}

func TestWriter_ClientErrorsAreNotRetried(t *testing.T) {
	api := &fakeSheetsAPI{failUpdates: 5, updateCode: http.StatusForbidden}
	w := newTestWriter(t, api, 100)

	err := w.WriteTables(context.Background(), []service.Table{
		{Name: "IARC", Columns: []string{"CAS"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to write tab "IARC"`)
	assert.Equal(t, 4, api.failUpdates, "a single attempt was made")
}
