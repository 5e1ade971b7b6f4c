// Package sheets connects the ledger to the driver's Google spreadsheet.
// Shift history is read from it by the sheet import, and the scheduler
// appends one progress row per day to the summary tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/driverledger/internal/config"
)

var (
	// ErrInvalidRange is returned for an empty or sheet-less A1 range.
	ErrInvalidRange = errors.New("invalid sheet range")
	// ErrNotConfigured means the spreadsheet id or credentials are missing.
	ErrNotConfigured = errors.New("google sheets integration is not configured")
)

// Repository is what the ledger needs from a spreadsheet. ReadRange feeds
// historical shift rows to the importer; WriteRow appends a daily summary.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository talks to one spreadsheet through the Sheets v4 API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository opens the spreadsheet named in cfg with its
// service account credentials.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends a summary row below the last filled row of sheetRange.
// Values are entered as a user would type them, so numbers stay numeric.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	tab, err := sheetName(sheetRange)
	if err != nil {
		return err
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append summary to %s: %w", sheetRange, err)
	}

	r.logger.Debug("summary row appended", zap.String("sheet", tab), zap.Int("cells", len(values)))
	return nil
}

// ReadRange returns the shift rows of sheetRange as the sheet displays
// them, so localized amounts such as "88.540,00" and dates such as
// "15/12/2025" reach the importer unchanged.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	tab, err := sheetName(sheetRange)
	if err != nil {
		return nil, err
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read shifts from %s: %w", sheetRange, err)
	}

	r.logger.Debug("shift rows read", zap.String("sheet", tab), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}

// ValidateRange checks that sheetRange names a sheet and a cell span, as in
// "Historial!A:E".
func ValidateRange(sheetRange string) error {
	_, err := sheetName(sheetRange)
	return err
}

// sheetName returns the tab part of an A1 range, without the quotes used
// for names with spaces.
func sheetName(sheetRange string) (string, error) {
	tab, cells, ok := strings.Cut(strings.TrimSpace(sheetRange), "!")
	tab = strings.Trim(strings.TrimSpace(tab), "'")
	if !ok || tab == "" || strings.TrimSpace(cells) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidRange, sheetRange)
	}
	return tab, nil
}
