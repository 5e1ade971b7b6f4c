package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateOrder is the field order of slash-style dates.
type DateOrder string

const (
	DayMonthYear DateOrder = "DMY"
	MonthDayYear DateOrder = "MDY"
)

// Locale describes how numbers and dates are written in the source data.
type Locale struct {
	ThousandsSeparator rune
	DecimalSeparator   rune
	DateOrder          DateOrder
}

// DefaultLocale follows the Latin-American convention: 1.234,50 and DD/MM/YYYY.
var DefaultLocale = Locale{
	ThousandsSeparator: '.',
	DecimalSeparator:   ',',
	DateOrder:          DayMonthYear,
}

// NormalizeDate converts s to YYYY-MM-DD using DefaultLocale.
func NormalizeDate(s string) (string, bool) {
	return DefaultLocale.NormalizeDate(s)
}

// NormalizeCurrency parses a locale-formatted amount using DefaultLocale.
// Anything unparseable yields 0.
func NormalizeCurrency(s string) float64 {
	return DefaultLocale.ParseNumber(s)
}

// NormalizeDate converts s to a strictly valid YYYY-MM-DD date. A four digit
// leading part is always the year; otherwise DateOrder decides. The second
// return value is false when s cannot be interpreted.
func (l Locale) NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
	if s == "" {
		return "", false
	}

	if head, _, found := strings.Cut(s, "-"); found && len(head) == 4 && isDigits(head) {
		// Exported timestamps carry a time part after the date.
		if i := strings.IndexAny(s, "T "); i > 0 {
			s = s[:i]
		}
		parts := strings.Split(s, "-")
		if len(parts) != 3 {
			return "", false
		}
		return buildDate(parts[0], parts[1], parts[2])
	}

	sep := strings.IndexAny(s, "/-.")
	if sep < 0 {
		return "", false
	}
	parts := strings.Split(s, s[sep:sep+1])
	if len(parts) != 3 {
		return "", false
	}

	if len(parts[0]) == 4 {
		return buildDate(parts[0], parts[1], parts[2])
	}

	day, month, year := parts[0], parts[1], parts[2]
	if l.DateOrder == MonthDayYear {
		day, month = month, day
	}

	switch len(year) {
	case 2:
		year = "20" + year
	case 4:
	default:
		return "", false
	}

	return buildDate(year, month, day)
}

func buildDate(year, month, day string) (string, bool) {
	if len(year) != 4 || !isDigits(year) {
		return "", false
	}
	if len(month) < 1 || len(month) > 2 || !isDigits(month) {
		return "", false
	}
	if len(day) < 1 || len(day) > 2 || !isDigits(day) {
		return "", false
	}

	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if m < 1 || m > 12 || d < 1 {
		return "", false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

// ParseNumber parses a locale-formatted number. Every character other than
// digits, the minus sign and the two separators is dropped first. The result
// is 0 when nothing numeric remains.
func (l Locale) ParseNumber(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == l.ThousandsSeparator:
		case r == l.DecimalSeparator:
			b.WriteRune('.')
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}

	value, _ := d.Float64()
	return value
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
