package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/driverledger/internal/domain/models"
	"github.com/mamadbah2/driverledger/internal/service/ledger"
	"github.com/mamadbah2/driverledger/internal/service/planner"
)

type fakeLoader struct {
	cfg    models.MonthlyConfig
	shifts []models.ShiftRecord
	months []models.YearMonth
	err    error
}

func (f *fakeLoader) View(_ context.Context, month models.YearMonth) (ledger.Snapshot, error) {
	if f.err != nil {
		return ledger.Snapshot{}, f.err
	}
	f.months = append(f.months, month)
	return ledger.Snapshot{
		Month:  month,
		Shifts: f.shifts,
		Config: f.cfg,
		Plan:   planner.ComputePlan(f.shifts, f.cfg, month),
	}, nil
}

func decemberLoader() *fakeLoader {
	return &fakeLoader{
		cfg: models.MonthlyConfig{Budget: 3500000, OffDays: []int{0}, HighDemandDays: []int{5, 6}},
		shifts: []models.ShiftRecord{
			{Date: "2025-12-15", Platform: "Uber", Earnings: 88540, Hours: 6, Type: models.RecordIncome},
		},
	}
}

func planNow() time.Time {
	return time.Date(2025, 12, 15, 20, 0, 0, 0, time.UTC)
}

func execPlan(loader monthLoader, monthFlag, dateFlag string, asJSON bool) (string, error) {
	stdout := new(bytes.Buffer)
	cmd := planCmd
	cmd.SetOut(stdout)

	err := runPlan(cmd, loader, monthFlag, dateFlag, asJSON, planNow)
	return stdout.String(), err
}

func TestPlanCurrentMonth(t *testing.T) {
	loader := decemberLoader()

	stdout, err := execPlan(loader, "", "", false)

	require.NoError(t, err)
	assert.Equal(t, []models.YearMonth{{Year: 2025, Month: time.December}}, loader.months)
	assert.Contains(t, stdout, "plan 2025-12")
	assert.Contains(t, stdout, "budget $3.500.000 over 27 work days")
	assert.Contains(t, stdout, "normal day goal")
	assert.Contains(t, stdout, "$100.000")
	assert.Contains(t, stdout, "high day goal")
	assert.Contains(t, stdout, "Today (2025-12-15, normal)")
}

func TestPlanWithDate(t *testing.T) {
	stdout, err := execPlan(decemberLoader(), "2025-12", "2025-12-19", false)

	require.NoError(t, err)
	assert.Contains(t, stdout, "2025-12-19 (high): target")
	assert.Contains(t, stdout, "$200.000")
}

func TestPlanDateSelectsMonth(t *testing.T) {
	loader := decemberLoader()

	_, err := execPlan(loader, "", "2026-01-05", false)

	require.NoError(t, err)
	assert.Equal(t, []models.YearMonth{{Year: 2026, Month: time.January}}, loader.months)
}

func TestPlanJSON(t *testing.T) {
	stdout, err := execPlan(decemberLoader(), "2025-12", "2025-12-21", true)
	require.NoError(t, err)

	var body struct {
		Plan models.PlanResult `json:"plan"`
		Day  models.DayTarget  `json:"day"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &body))
	assert.Equal(t, 88540.0, body.Plan.TotalEarnings)
	assert.Equal(t, models.DayRest, body.Day.Class)
	assert.Zero(t, body.Day.Target)
}

func TestPlanErrors(t *testing.T) {
	_, err := execPlan(decemberLoader(), "2025-13", "", false)
	assert.Error(t, err)

	_, err = execPlan(decemberLoader(), "2025-12", "19/12/2025", false)
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")

	_, err = execPlan(decemberLoader(), "2025-12", "2026-01-01", false)
	assert.ErrorContains(t, err, "outside 2025-12")

	_, err = execPlan(&fakeLoader{err: errors.New("server selection timeout")}, "", "", false)
	assert.ErrorContains(t, err, "server selection timeout")
}
