package importer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

const (
	DefaultGroupSize    = 10
	MaxGroupSize        = 50
	DefaultWriteTimeout = 8 * time.Second
)

// Inserter is the persistence operation the batch writer needs.
type Inserter interface {
	InsertShift(ctx context.Context, record models.ShiftRecord) (string, error)
}

// WriteFailure is a record that could not be persisted.
type WriteFailure struct {
	Index  int
	Reason string
}

// WriteResult reports per-record outcomes. IDs[i] is empty when record i failed.
type WriteResult struct {
	Written  int
	IDs      []string
	Failures []WriteFailure
}

// BatchWriter inserts records in sequential groups. Writes inside a group
// run concurrently, so at most groupSize writes are in flight.
type BatchWriter struct {
	repo      Inserter
	groupSize int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewBatchWriter builds a writer. Out of range settings fall back to defaults.
func NewBatchWriter(repo Inserter, groupSize int, timeout time.Duration, logger *zap.Logger) *BatchWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if groupSize < 1 || groupSize > MaxGroupSize {
		groupSize = DefaultGroupSize
	}
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &BatchWriter{repo: repo, groupSize: groupSize, timeout: timeout, logger: logger}
}

// Write persists records. A failed write never affects its siblings and is
// not retried.
func (w *BatchWriter) Write(ctx context.Context, records []models.ShiftRecord) WriteResult {
	ids := make([]string, len(records))
	errs := make([]error, len(records))

	for start := 0; start < len(records); start += w.groupSize {
		end := min(start+w.groupSize, len(records))

		var group errgroup.Group
		for i := start; i < end; i++ {
			group.Go(func() error {
				writeCtx, cancel := context.WithTimeout(ctx, w.timeout)
				defer cancel()

				id, err := w.repo.InsertShift(writeCtx, records[i])
				if err == nil {
					ids[i] = id
					return nil
				}
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(writeCtx.Err(), context.DeadlineExceeded) {
					err = context.DeadlineExceeded
				}
				errs[i] = err
				return nil
			})
		}
		_ = group.Wait()

		w.logger.Debug("import group settled", zap.Int("from", start), zap.Int("to", end))
	}

	result := WriteResult{IDs: ids}
	for i, err := range errs {
		if err == nil {
			result.Written++
			continue
		}

		reason := "write failed: " + err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = models.ReasonNetworkTimeout
		}
		result.Failures = append(result.Failures, WriteFailure{Index: i, Reason: reason})
		w.logger.Warn("shift write failed",
			zap.String("date", records[i].Date),
			zap.String("platform", records[i].Platform),
			zap.Error(err))
	}

	return result
}
