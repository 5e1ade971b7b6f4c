package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

type fakeSheet struct {
	values [][]interface{}
	err    error
}

func (f fakeSheet) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.values, f.err
}

func newTestService(repo *fakeInserter) *Service {
	svc := NewService(NewBatchWriter(repo, 2, time.Second, nil), DefaultOptions(), nil)
	svc.newID = func() string { return "run-1" }
	return svc
}

func TestServiceImportWritesAndStampsRun(t *testing.T) {
	repo := &fakeInserter{}
	svc := newTestService(repo)

	input := textInput(
		"01/12/2025\t10.000\t5.000\t\t3",
		"fecha rota\t1\t\t\t1",
	)
	report, err := svc.Import(context.Background(), input, svc.Defaults(), false)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 2, report.Parsed)
	assert.Equal(t, 2, report.Written)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, 2, report.Rejected[0].Line)
	assert.Equal(t, 15000.0, report.Totals.Earnings)
	assert.InDelta(t, 3.0, report.Totals.Hours, 1e-9)

	require.Len(t, repo.saved, 2)
	for _, rec := range repo.saved {
		assert.Equal(t, "run-1", rec.ImportID)
	}
}

func TestServiceImportDryRun(t *testing.T) {
	repo := &fakeInserter{}
	svc := newTestService(repo)

	report, err := svc.Import(context.Background(), textInput("01/12/2025\t10.000\t\t\t3"), svc.Defaults(), true)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Parsed)
	assert.Zero(t, report.Written)
	assert.Equal(t, 10000.0, report.Totals.Earnings)
	assert.Empty(t, repo.saved)
}

func TestServiceImportMapsWriteFailuresToLines(t *testing.T) {
	repo := &fakeInserter{fail: map[string]error{"2025-12-02": errors.New("connection reset")}}
	svc := newTestService(repo)

	input := textInput(
		"01/12/2025\t10.000\t\t\t3",
		"02/12/2025\t8.000\t\t\t2",
	)
	report, err := svc.Import(context.Background(), input, svc.Defaults(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Written)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, 2, report.Rejected[0].Line)
	assert.Equal(t, "write failed: connection reset", report.Rejected[0].Reason)
	assert.Equal(t, 10000.0, report.Totals.Earnings)

	last := report.Entries[len(report.Entries)-1]
	assert.Equal(t, models.LogRejected, last.Status)
	assert.Equal(t, 2, last.Line)
}

func TestServiceImportStructuralError(t *testing.T) {
	repo := &fakeInserter{}
	svc := newTestService(repo)

	_, err := svc.Import(context.Background(), Input{Format: FormatJSON, Data: []byte(`"nope"`)}, svc.Defaults(), false)
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Empty(t, repo.saved)
}

func TestServiceImportSheet(t *testing.T) {
	repo := &fakeInserter{}
	svc := newTestService(repo)

	sheet := fakeSheet{values: [][]interface{}{
		{"Fecha", "Uber", "Didi", "Otros", "Horas"},
		{"15/12/2025", "88.540,00", "", "", "6"},
	}}
	report, err := svc.ImportSheet(context.Background(), sheet, "Historial!A:E", svc.Defaults(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)

	_, err = svc.ImportSheet(context.Background(), fakeSheet{err: errors.New("403")}, "Historial!A:E", svc.Defaults(), false)
	assert.Error(t, err)
}
