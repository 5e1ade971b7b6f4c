// Package planner distributes a monthly earnings budget across weighted work
// days and measures progress against it.
package planner

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

const (
	normalWeight = 1
	highWeight   = 2
)

// ComputePlan builds the weighted plan for month and aggregates progress over
// shifts. Shifts are expected to be already scoped to the month.
func ComputePlan(shifts []models.ShiftRecord, cfg models.MonthlyConfig, month models.YearMonth) models.PlanResult {
	plan := weighMonth(cfg, month)

	result := models.PlanResult{
		Month:  month.String(),
		Budget: coerce(cfg.Budget),
		Plan:   plan,
	}

	for _, shift := range shifts {
		result.TotalEarnings += coerce(shift.Earnings)
		result.TotalHours += coerce(shift.Hours)
		result.TotalKm += coerce(shift.Km)
	}

	if result.TotalHours > 0 {
		result.HourlyRate = result.TotalEarnings / result.TotalHours
	}

	if result.Budget > 0 {
		result.CurrentProgress = math.Min(result.TotalEarnings/result.Budget*100, 100)
		result.Remaining = math.Max(result.Budget-result.TotalEarnings, 0)
	}

	return result
}

func weighMonth(cfg models.MonthlyConfig, month models.YearMonth) models.Plan {
	var plan models.Plan

	for _, day := range monthDays(month) {
		switch classify(day, cfg) {
		case models.DayVacation, models.DayRest:
			continue
		case models.DayHigh:
			plan.WorkDays++
			plan.HighDays++
			plan.TotalWeight += highWeight
		default:
			plan.WorkDays++
			plan.NormalDays++
			plan.TotalWeight += normalWeight
		}
	}

	if plan.TotalWeight > 0 {
		plan.UnitValue = coerce(cfg.Budget) / plan.TotalWeight
	}
	plan.NormalGoal = plan.UnitValue
	plan.HighGoal = plan.UnitValue * highWeight

	return plan
}

// ClassifyDay reports the class and earnings target of a single date.
// Precedence is vacation, then rest, then high demand, then normal.
func ClassifyDay(date string, cfg models.MonthlyConfig, plan models.Plan) (models.DayTarget, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return models.DayTarget{}, fmt.Errorf("classify %q: %w", date, err)
	}

	target := models.DayTarget{
		Date:    date,
		Weekday: int(day.Weekday()),
		Class:   classify(day, cfg),
	}

	switch target.Class {
	case models.DayHigh:
		target.Target = plan.HighGoal
	case models.DayNormal:
		target.Target = plan.NormalGoal
	}

	return target, nil
}

// PlatformBreakdown groups shifts per platform, highest earnings first.
func PlatformBreakdown(shifts []models.ShiftRecord) []models.PlatformTotal {
	index := make(map[string]int)
	var totals []models.PlatformTotal

	for _, shift := range shifts {
		i, ok := index[shift.Platform]
		if !ok {
			i = len(totals)
			index[shift.Platform] = i
			totals = append(totals, models.PlatformTotal{Platform: shift.Platform})
		}
		totals[i].Earnings += coerce(shift.Earnings)
		totals[i].Hours += coerce(shift.Hours)
		totals[i].Km += coerce(shift.Km)
		totals[i].Records++
	}

	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].Earnings > totals[b].Earnings
	})

	return totals
}

func classify(day time.Time, cfg models.MonthlyConfig) models.DayClass {
	if cfg.HasVacation() {
		iso := day.Format(models.DateLayout)
		if iso >= cfg.VacationStart && iso <= cfg.VacationEnd {
			return models.DayVacation
		}
	}

	weekday := int(day.Weekday())
	switch {
	case containsDay(cfg.OffDays, weekday):
		return models.DayRest
	case containsDay(cfg.HighDemandDays, weekday):
		return models.DayHigh
	default:
		return models.DayNormal
	}
}

func monthDays(month models.YearMonth) []time.Time {
	// NewRRule only rejects invalid frequencies and intervals; both are fixed here.
	rule, _ := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: month.First(),
		Until:   month.Last(),
	})
	return rule.All()
}

func containsDay(days []int, weekday int) bool {
	for _, d := range days {
		if d == weekday {
			return true
		}
	}
	return false
}

// coerce maps malformed numeric values to zero.
func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
