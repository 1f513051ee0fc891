package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	ports "zenledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client appends audit rows to a Google spreadsheet. The sheet name is
// prefixed with the current year so each year's trail lives on its own
// tab.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	auditSheet    string
}

// Ensure interface conformance
var (
	_ ports.AuditWriter = (*Client)(nil)
	_ ports.AuditReader = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_AUDIT_SHEET_NAME (default "Audit"); the current year
// is prefixed automatically.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	auditBase := strings.TrimSpace(os.Getenv("GOOGLE_AUDIT_SHEET_NAME"))
	if auditBase == "" {
		auditBase = "Audit"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		auditSheet:    yearPrefixedName(auditBase, time.Now().Year()),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// Append implements ports.AuditWriter.
func (c *Client) Append(ctx context.Context, e ports.Entry) (string, error) {
	row := []interface{}{
		e.When.UTC().Format(time.RFC3339),
		e.Kind,
		e.ID,
		e.Summary,
	}

	rng := fmt.Sprintf("'%s'!A:D", c.auditSheet)
	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append audit row: %w", err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	slog.DebugContext(ctx, "Audit row appended",
		"kind", e.Kind,
		"id", e.ID,
		"range", ref)
	return ref, nil
}

// Recent implements ports.AuditReader.
func (c *Client) Recent(ctx context.Context, limit int) ([]ports.Entry, error) {
	rng := fmt.Sprintf("'%s'!A:D", c.auditSheet)
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, rng).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read audit rows: %w", err)
	}

	entries := parseAudit(resp.Values)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// yearPrefixedName joins a year and a base sheet name, e.g. "2026 Audit".
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("%d %s", year, base)
}
