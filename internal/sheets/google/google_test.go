package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"wealthnav/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got: %v", err)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.ReadAll(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
	if err := c.WriteAll(context.Background(), nil); err == nil {
		t.Fatal("expected error with nil service")
	}
}

// fakeSheets emulates the three Sheets endpoints the client uses.
type fakeSheets struct {
	mu        sync.Mutex
	values    [][]interface{}
	batches   []gsheet.BatchUpdateSpreadsheetRequest
	failWrite bool
	lookups   int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Ledger!A1:F10", "values": f.values})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		if f.failWrite {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission"}}`)
			return
		}
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.batches = append(f.batches, req)
		_, _ = io.WriteString(w, `{"spreadsheetId":"sid"}`)
	case r.Method == http.MethodGet:
		f.lookups++
		_, _ = io.WriteString(w, `{"sheets":[{"properties":{"sheetId":3,"title":"Other"}},{"properties":{"sheetId":7,"title":"Ledger"}}]}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return New(svc, "sid", "Ledger")
}

func TestClient_ReadAll(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{
		{"日付", "現物買付余力", "現物時価総額", "信用評価損益", "総資産", "1億円までの残り"},
		{"2026/02/01", 1.0, 2.0, 3.0, 6.0, 99999994.0},
	}}
	c := newTestClient(t, f)

	rows, err := c.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 1 || rows[0].Date != "2026/02/01" || rows[0].Total != "6" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestNewFromOptions_ExtraClientOptions(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{
		{"日付", "現物買付余力", "現物時価総額", "信用評価損益", "総資産", "1億円までの残り"},
		{"2026/02/01", 1.0, 2.0, 3.0, 6.0, 99999994.0},
	}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := NewFromOptions(context.Background(), Options{
		SpreadsheetID:   "sid",
		CredentialsJSON: `{"type":"service_account","project_id":"test"}`,
	}, goption.WithEndpoint(srv.URL+"/"), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewFromOptions: %v", err)
	}
	if c.ledgerSheet != "Ledger" {
		t.Errorf("sheet = %q, want default Ledger", c.ledgerSheet)
	}
	rows, err := c.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 1 || rows[0].Date != "2026/02/01" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestClient_WriteAllSingleBatch(t *testing.T) {
	f := &fakeSheets{}
	c := newTestClient(t, f)
	rows := []core.RawRow{
		{Date: "2026/01/01", Cash: "100", Spot: "200", Margin: "-50", Total: "250", Remaining: "99999750"},
	}
	for i := 0; i < 2; i++ {
		if err := c.WriteAll(context.Background(), rows); err != nil {
			t.Fatalf("WriteAll: %v", err)
		}
	}
	if f.lookups != 1 {
		t.Fatalf("sheet id should be resolved once, got %d lookups", f.lookups)
	}
	if len(f.batches) != 2 || len(f.batches[0].Requests) != 1 {
		t.Fatalf("expected one request per write, got %+v", f.batches)
	}
	uc := f.batches[0].Requests[0].UpdateCells
	if uc == nil || uc.Range.SheetId != 7 || uc.Range.EndColumnIndex != 6 || uc.Range.EndRowIndex != 0 {
		t.Fatalf("unexpected update range: %+v", uc)
	}
	if len(uc.Rows) != 2 || uc.Fields != "userEnteredValue" {
		t.Fatalf("expected header + 1 row, got %d rows fields=%q", len(uc.Rows), uc.Fields)
	}
}

func TestClient_WriteAllPermissionDenied(t *testing.T) {
	f := &fakeSheets{failWrite: true}
	c := newTestClient(t, f)

	err := c.WriteAll(context.Background(), nil)
	var se *core.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if se.Backend != "sheets" {
		t.Fatalf("unexpected backend %q", se.Backend)
	}
}

func TestClient_UnknownSheet(t *testing.T) {
	f := &fakeSheets{}
	c := newTestClient(t, f)
	c.ledgerSheet = "Missing"
	if err := c.WriteAll(context.Background(), nil); err == nil || !strings.Contains(err.Error(), `"Missing" not found`) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
