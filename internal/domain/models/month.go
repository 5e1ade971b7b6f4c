package models

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(value string) (YearMonth, error) {
	t, err := time.Parse(MonthLayout, value)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q: %w", value, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First returns midnight UTC of the first day of the month.
func (m YearMonth) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns midnight UTC of the last day of the month.
func (m YearMonth) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

// Days is the number of calendar days in the month.
func (m YearMonth) Days() int {
	return m.Last().Day()
}

// DateRange returns the inclusive ISO bounds of the month.
func (m YearMonth) DateRange() (string, string) {
	return m.First().Format(DateLayout), m.Last().Format(DateLayout)
}

// ConfigKey is the document id of the month's configuration.
func (m YearMonth) ConfigKey() string {
	return "config_" + m.String()
}
