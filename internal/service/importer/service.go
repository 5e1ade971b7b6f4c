// Package importer normalizes historical spreadsheet, CSV and JSON exports
// into shift records and writes them in bounded concurrent groups.
package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

// Service runs bulk imports end to end.
type Service struct {
	writer   *BatchWriter
	defaults Options
	logger   *zap.Logger
	newID    func() string
}

// NewService wires an import service.
func NewService(writer *BatchWriter, defaults Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		writer:   writer,
		defaults: defaults,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Defaults returns the configured options so callers can override fields.
func (s *Service) Defaults() Options {
	return s.defaults
}

// Import parses input and, unless dryRun is set, persists the accepted
// records. Structural errors abort the run; every other problem is reported
// in the returned log.
func (s *Service) Import(ctx context.Context, input Input, opts Options, dryRun bool) (models.ImportReport, error) {
	runID := s.newID()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("format", string(input.Format)))

	parsed, err := ParseBulkInput(input, opts)
	if err != nil {
		logger.Warn("import rejected", zap.Error(err))
		return models.ImportReport{}, fmt.Errorf("parse import: %w", err)
	}

	report := models.ImportReport{
		RunID:    runID,
		DryRun:   dryRun,
		Parsed:   len(parsed.Records),
		Rejected: append([]models.RejectedLine{}, parsed.Rejected...),
		Entries:  append([]models.LogEntry{}, parsed.Entries...),
	}

	for i := range parsed.Records {
		parsed.Records[i].ImportID = runID
	}

	if dryRun {
		for _, rec := range parsed.Records {
			report.Totals.Add(rec)
		}
		logger.Info("import dry run finished",
			zap.Int("parsed", report.Parsed),
			zap.Int("rejected", len(report.Rejected)))
		return report, nil
	}

	written := s.writer.Write(ctx, parsed.Records)
	report.Written = written.Written

	failed := make(map[int]bool, len(written.Failures))
	for _, f := range written.Failures {
		failed[f.Index] = true
		rec := parsed.Records[f.Index]
		line := parsed.Sources[f.Index]
		report.Rejected = append(report.Rejected, models.RejectedLine{
			Line:   line,
			Reason: f.Reason,
			Raw:    rec.Date + " " + rec.Platform,
		})
		report.Entries = append(report.Entries, models.LogEntry{
			Line:   line,
			Status: models.LogRejected,
			Detail: rec.Date + " " + rec.Platform + ": " + f.Reason,
		})
	}

	for i, rec := range parsed.Records {
		if !failed[i] {
			report.Totals.Add(rec)
		}
	}

	logger.Info("import finished",
		zap.Int("parsed", report.Parsed),
		zap.Int("written", report.Written),
		zap.Int("rejected", len(report.Rejected)),
		zap.Float64("earnings", report.Totals.Earnings))

	return report, nil
}

// ImportSheet reads a Google Sheets range and imports it as positional rows.
func (s *Service) ImportSheet(ctx context.Context, reader SheetReader, sheetRange string, opts Options, dryRun bool) (models.ImportReport, error) {
	rows, err := ReadSheet(ctx, reader, sheetRange)
	if err != nil {
		return models.ImportReport{}, err
	}
	return s.Import(ctx, Input{Format: FormatRows, Rows: rows}, opts, dryRun)
}
