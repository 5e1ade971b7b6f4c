package planner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

var (
	november2025 = models.YearMonth{Year: 2025, Month: time.November}
	december2025 = models.YearMonth{Year: 2025, Month: time.December}
)

func TestComputePlanPlainThirtyDayMonth(t *testing.T) {
	cfg := models.MonthlyConfig{Budget: 900000}

	result := ComputePlan(nil, cfg, november2025)

	assert.Equal(t, 30, result.Plan.WorkDays)
	assert.Equal(t, 30.0, result.Plan.TotalWeight)
	assert.Equal(t, 30, result.Plan.NormalDays)
	assert.Equal(t, 0, result.Plan.HighDays)
	assert.InDelta(t, 900000.0/30, result.Plan.NormalGoal, 1e-9)
}

func TestComputePlanDecemberWeighted(t *testing.T) {
	cfg := models.MonthlyConfig{
		Budget:         1000000,
		OffDays:        []int{0},
		HighDemandDays: []int{6},
	}

	result := ComputePlan(nil, cfg, december2025)

	// December 2025 has four Sundays and four Saturdays.
	assert.Equal(t, 27, result.Plan.WorkDays)
	assert.Equal(t, 23, result.Plan.NormalDays)
	assert.Equal(t, 4, result.Plan.HighDays)
	assert.Equal(t, float64(23*1+4*2), result.Plan.TotalWeight)
	assert.Equal(t, result.Plan.NormalGoal*2, result.Plan.HighGoal)
	assert.InDelta(t, 1000000.0/31, result.Plan.NormalGoal, 1e-9)
}

func TestComputePlanZeroBudget(t *testing.T) {
	shifts := []models.ShiftRecord{
		{Date: "2025-12-02", Platform: "Uber", Earnings: 50000, Hours: 5},
	}

	result := ComputePlan(shifts, models.MonthlyConfig{HighDemandDays: []int{5}}, december2025)

	assert.Zero(t, result.Plan.NormalGoal)
	assert.Zero(t, result.Plan.HighGoal)
	assert.Zero(t, result.CurrentProgress)
	assert.Equal(t, 50000.0, result.TotalEarnings)
}

func TestComputePlanOffDaysWinOverHighDemand(t *testing.T) {
	cfg := models.MonthlyConfig{
		Budget:         250000,
		OffDays:        []int{0},
		HighDemandDays: []int{0},
	}

	result := ComputePlan(nil, cfg, november2025)

	// November 2025 has five Sundays, all excluded.
	assert.Equal(t, 25, result.Plan.WorkDays)
	assert.Equal(t, 0, result.Plan.HighDays)
	assert.Equal(t, 25.0, result.Plan.TotalWeight)
}

func TestComputePlanAllDaysExcluded(t *testing.T) {
	cfg := models.MonthlyConfig{
		Budget:        500000,
		VacationStart: "2025-11-01",
		VacationEnd:   "2025-11-30",
	}

	result := ComputePlan(nil, cfg, november2025)

	assert.Zero(t, result.Plan.WorkDays)
	assert.Zero(t, result.Plan.TotalWeight)
	assert.Zero(t, result.Plan.NormalGoal)
	assert.False(t, math.IsNaN(result.Plan.UnitValue))
}

func TestComputePlanVacationRangeIsInclusive(t *testing.T) {
	cfg := models.MonthlyConfig{
		Budget:        210000,
		VacationStart: "2025-12-01",
		VacationEnd:   "2025-12-10",
	}

	result := ComputePlan(nil, cfg, december2025)

	assert.Equal(t, 21, result.Plan.WorkDays)
	assert.InDelta(t, 10000.0, result.Plan.NormalGoal, 1e-9)
}

func TestComputePlanHalfOpenVacationIgnored(t *testing.T) {
	cfg := models.MonthlyConfig{Budget: 310000, VacationStart: "2025-12-01"}

	result := ComputePlan(nil, cfg, december2025)

	assert.Equal(t, 31, result.Plan.WorkDays)
}

func TestComputePlanProgressAndRate(t *testing.T) {
	shifts := []models.ShiftRecord{
		{Date: "2025-12-01", Platform: "Uber", Earnings: 60000, Hours: 4, Km: 80},
		{Date: "2025-12-02", Platform: "Didi", Earnings: 40000, Hours: 6, Km: 20},
		{Date: "2025-12-03", Platform: "Otros", Earnings: math.NaN(), Hours: math.Inf(1)},
	}

	result := ComputePlan(shifts, models.MonthlyConfig{Budget: 400000}, december2025)

	assert.Equal(t, 100000.0, result.TotalEarnings)
	assert.Equal(t, 10.0, result.TotalHours)
	assert.Equal(t, 100.0, result.TotalKm)
	assert.Equal(t, 10000.0, result.HourlyRate)
	assert.Equal(t, 25.0, result.CurrentProgress)
	assert.Equal(t, 300000.0, result.Remaining)
}

func TestComputePlanProgressClamped(t *testing.T) {
	shifts := []models.ShiftRecord{{Date: "2025-12-01", Platform: "Uber", Earnings: 300000}}

	result := ComputePlan(shifts, models.MonthlyConfig{Budget: 100000}, december2025)

	assert.Equal(t, 100.0, result.CurrentProgress)
	assert.Zero(t, result.Remaining)
	assert.Zero(t, result.HourlyRate)
}

func TestClassifyDay(t *testing.T) {
	cfg := models.MonthlyConfig{
		Budget:         1000000,
		OffDays:        []int{0},
		HighDemandDays: []int{6, 0},
		VacationStart:  "2025-12-24",
		VacationEnd:    "2025-12-26",
	}
	plan := ComputePlan(nil, cfg, december2025).Plan

	tests := []struct {
		name   string
		date   string
		class  models.DayClass
		target float64
	}{
		{name: "normal weekday", date: "2025-12-03", class: models.DayNormal, target: plan.NormalGoal},
		{name: "saturday is high", date: "2025-12-06", class: models.DayHigh, target: plan.HighGoal},
		{name: "sunday rest beats high", date: "2025-12-07", class: models.DayRest, target: 0},
		{name: "vacation beats weekday", date: "2025-12-24", class: models.DayVacation, target: 0},
		{name: "vacation end inclusive", date: "2025-12-26", class: models.DayVacation, target: 0},
		{name: "after vacation", date: "2025-12-27", class: models.DayHigh, target: plan.HighGoal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyDay(tt.date, cfg, plan)
			require.NoError(t, err)
			assert.Equal(t, tt.class, got.Class)
			assert.Equal(t, tt.target, got.Target)
		})
	}
}

func TestClassifyDayInvalidDate(t *testing.T) {
	_, err := ClassifyDay("15/12/2025", models.MonthlyConfig{}, models.Plan{})
	assert.Error(t, err)
}

func TestPlatformBreakdown(t *testing.T) {
	shifts := []models.ShiftRecord{
		{Platform: "Didi", Earnings: 1000, Hours: 1},
		{Platform: "Uber", Earnings: 5000, Hours: 2},
		{Platform: "Didi", Earnings: 2000, Hours: 1, Km: 12},
	}

	got := PlatformBreakdown(shifts)

	require.Len(t, got, 2)
	assert.Equal(t, "Uber", got[0].Platform)
	assert.Equal(t, "Didi", got[1].Platform)
	assert.Equal(t, 3000.0, got[1].Earnings)
	assert.Equal(t, 2, got[1].Records)
	assert.Equal(t, 12.0, got[1].Km)
}

func TestMonthDaysCoversEveryDay(t *testing.T) {
	for _, month := range []models.YearMonth{
		{Year: 2024, Month: time.February},
		{Year: 2025, Month: time.February},
		{Year: 2025, Month: time.December},
	} {
		days := monthDays(month)
		require.Len(t, days, month.Days(), month.String())
		assert.True(t, month.First().Equal(days[0]), month.String())
		assert.True(t, month.Last().Equal(days[len(days)-1]), month.String())
	}
}
