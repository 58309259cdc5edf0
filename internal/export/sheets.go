// Package export writes monthly spending reports to a Google
// spreadsheet. The sheet is an outbound copy for sharing and archival;
// nothing is ever read back from it.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/faeiqkhan/pocket-insight/internal/core"
	"github.com/faeiqkhan/pocket-insight/internal/insights"
)

// SheetsExporter appends report blocks to one sheet of one spreadsheet.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsExporter builds the exporter with service account
// credentials taken from the environment. Set
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsExporter(ctx context.Context, spreadsheetID, sheetName string) (*SheetsExporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

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

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// ExportMonth appends the month's report block to the sheet and returns
// the range the spreadsheet reports as written.
func (x *SheetsExporter) ExportMonth(ctx context.Context, summary insights.MonthSummary, expenses []core.Expense) (string, error) {
	if x.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rows := reportRows(summary, expenses)
	vr := &gsheet.ValueRange{Values: rows}
	rng := fmt.Sprintf("%s!A1", x.sheetName)

	resp, err := x.svc.Spreadsheets.Values.Append(x.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append report to sheet %s: %w", x.sheetName, err)
	}

	written := ""
	if resp.Updates != nil {
		written = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Exported month report",
		"month", summary.Month.String(),
		"rows", len(rows),
		"range", written)
	return written, nil
}

// reportRows lays the summary and the month's records out as sheet
// rows. Amounts are decimal strings; USER_ENTERED turns them back into
// numbers on the sheet side.
func reportRows(summary insights.MonthSummary, expenses []core.Expense) [][]any {
	rows := [][]any{
		{"Report", summary.Month.Label()},
		{"Total", summary.Total.DecimalString()},
		{"Previous month", summary.PreviousTotal.DecimalString(), fmt.Sprintf("%+.1f%%", summary.PercentChange)},
	}
	if summary.HasBudget {
		rows = append(rows, []any{
			"Budget", summary.Budget.DecimalString(),
			"Left", summary.BudgetLeft.DecimalString(),
		})
	}

	rows = append(rows, []any{""}, []any{"By category"})
	for _, cat := range core.Categories() {
		amount := summary.ByCategory[cat]
		if amount.Cents == 0 {
			continue
		}
		rows = append(rows, []any{string(cat), amount.DecimalString()})
	}

	rows = append(rows, []any{""}, []any{"Date", "Category", "Description", "Amount", "Payment", "Tag"})
	for _, e := range expenses {
		rows = append(rows, []any{
			e.Date.String(),
			string(e.Category),
			e.Description,
			e.Amount.DecimalString(),
			string(e.Payment),
			e.Tag,
		})
	}
	return rows
}
