package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"seafoodpulse/internal/config"
	apperrors "seafoodpulse/internal/errors"
)

// SheetsPublisher mirrors tables into a Google spreadsheet. A publisher
// built from a disabled config accepts every call and does nothing.
type SheetsPublisher struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewSheetsPublisher authenticates with the service account credentials in
// credentialsFile. It returns a no-op publisher when publishing is disabled.
func NewSheetsPublisher(ctx context.Context, cfg config.SheetsConfig, credentialsFile string, logger *slog.Logger) (*SheetsPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "sheets_publisher"))

	if !cfg.Enabled {
		return &SheetsPublisher{logger: logger}, nil
	}

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, apperrors.NewConfigError("read sheets credentials", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, apperrors.NewConfigError("create sheets service", err)
	}

	return NewSheetsPublisherWithService(svc, cfg.SpreadsheetID, logger), nil
}

// NewSheetsPublisherWithService wraps an existing Sheets client
func NewSheetsPublisherWithService(svc *sheets.Service, spreadsheetID string, logger *slog.Logger) *SheetsPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsPublisher{service: svc, spreadsheetID: spreadsheetID, logger: logger}
}

// Enabled reports whether Publish talks to the Sheets API
func (p *SheetsPublisher) Enabled() bool {
	return p != nil && p.service != nil
}

// Publish clears sheetName and writes header plus rows starting at A1
func (p *SheetsPublisher) Publish(ctx context.Context, sheetName string, header []string, rows [][]string) error {
	if !p.Enabled() {
		return nil
	}

	if _, err := p.service.Spreadsheets.Values.Clear(p.spreadsheetID, sheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("clear sheet %s", sheetName), err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toInterfaces(header))
	for _, r := range rows {
		values = append(values, toInterfaces(r))
	}

	_, err := p.service.Spreadsheets.Values.Update(
		p.spreadsheetID,
		sheetName+"!A1",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("update sheet %s", sheetName), err)
	}

	p.logger.InfoContext(ctx, "published sheet",
		slog.String("sheet", sheetName),
		slog.Int("rows", len(rows)))
	return nil
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
