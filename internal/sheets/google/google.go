package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"wealthnav/internal/core"
	ports "wealthnav/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const backendName = "sheets"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string

	// Resolved lazily from the sheet title; batch updates address sheets by ID.
	mu       sync.Mutex
	sheetID  int64
	resolved bool
}

// Ensure interface conformance
var _ ports.LedgerStore = (*Client)(nil)

// Options configures a Sheets-backed ledger.
type Options struct {
	SpreadsheetID   string
	SheetName       string // default "Ledger"
	CredentialsJSON string
	CredentialsFile string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Ledger")
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	opts := Options{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if strings.TrimSpace(opts.CredentialsJSON) == "" && strings.TrimSpace(opts.CredentialsFile) == "" {
		opts.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	return NewFromOptions(ctx, opts)
}

// NewFromOptions creates a Sheets client with service account credentials.
func NewFromOptions(ctx context.Context, opts Options, extra ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Ledger"
	}

	svc, err := newSheetsService(ctx, opts, extra...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, sheet), nil
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   sheet,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options, extra ...goption.ClientOption) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	clientOpts := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, extra...)
	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadAll reads every ledger row below the header.
func (c *Client) ReadAll(ctx context.Context) ([]core.RawRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:F", c.ledgerSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, &core.StoreError{Backend: backendName, Op: "read " + rng, Err: err}
	}
	rows := parseLedger(resp.Values)
	slog.DebugContext(ctx, "Read ledger from sheet", "sheet", c.ledgerSheet, "rows", len(rows))
	return rows, nil
}

// WriteAll replaces the ledger sheet content with a header plus rows.
//
// The write is one UpdateCells request over the whole A:F band: cells beyond
// the new data are cleared by the same request, and a batch update is applied
// all-or-nothing, so a failure leaves the previous ledger intact.
func (c *Client) WriteAll(ctx context.Context, rows []core.RawRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			UpdateCells: &gsheet.UpdateCellsRequest{
				Range: &gsheet.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(core.Columns)),
				},
				Rows:   buildRowData(rows),
				Fields: "userEnteredValue",
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return &core.StoreError{Backend: backendName, Op: "replace " + c.ledgerSheet, Err: err}
	}
	slog.InfoContext(ctx, "Replaced ledger sheet", "sheet", c.ledgerSheet, "rows", len(rows))
	return nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		return c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, &core.StoreError{Backend: backendName, Op: "lookup sheet", Err: err}
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && strings.EqualFold(strings.TrimSpace(sh.Properties.Title), c.ledgerSheet) {
			c.sheetID, c.resolved = sh.Properties.SheetId, true
			return c.sheetID, nil
		}
	}
	return 0, &core.StoreError{Backend: backendName, Op: "lookup sheet", Err: fmt.Errorf("sheet %q not found", c.ledgerSheet)}
}
