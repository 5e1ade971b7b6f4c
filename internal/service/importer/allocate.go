package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

// Policy decides how a day's aggregate hours and km are attributed to the
// platforms that earned money that day.
type Policy string

const (
	// PolicyMaxEarner gives all hours and km to the strictly greatest earner.
	// Ties go to the earliest platform in column order.
	PolicyMaxEarner Policy = "max-earner"
	// PolicyProportional splits hours and km by earnings share.
	PolicyProportional Policy = "proportional"
	// PolicyDailyReport keeps earnings rows at zero hours and emits one
	// day-level stats row carrying the hours and km.
	PolicyDailyReport Policy = "daily-report"
)

const allocationPlaces = 4

// ParsePolicy validates a policy name.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case PolicyMaxEarner, PolicyProportional, PolicyDailyReport:
		return p, nil
	case "":
		return PolicyProportional, nil
	default:
		return "", fmt.Errorf("%w: unknown allocation policy %q", ErrInvalidOptions, name)
	}
}

type platformAmount struct {
	Platform string
	Earnings float64
}

// dayRow is one validated day: a date, per-platform earnings in column order,
// and the day's aggregate hours and km.
type dayRow struct {
	Date    string
	Amounts []platformAmount
	Hours   float64
	Km      float64
}

func (r dayRow) totalEarnings() float64 {
	var total float64
	for _, a := range r.Amounts {
		total += a.Earnings
	}
	return total
}

// allocate turns a day into records. Only platforms with earnings produce
// income records. A day with hours or km but no earnings is kept on the
// placeholder platform.
func (p Policy) allocate(row dayRow, placeholder string) []models.ShiftRecord {
	var earners []platformAmount
	for _, a := range row.Amounts {
		if a.Earnings > 0 {
			earners = append(earners, a)
		}
	}

	if p == PolicyDailyReport {
		records := make([]models.ShiftRecord, 0, len(earners)+1)
		for _, e := range earners {
			records = append(records, income(row.Date, e.Platform, e.Earnings, 0, 0))
		}
		if row.Hours > 0 || row.Km > 0 {
			records = append(records, models.ShiftRecord{
				Date:     row.Date,
				Platform: models.PlatformDailyReport,
				Hours:    row.Hours,
				Km:       row.Km,
				Type:     models.RecordStats,
			})
		}
		return records
	}

	if len(earners) == 0 {
		if row.Hours > 0 || row.Km > 0 {
			return []models.ShiftRecord{income(row.Date, placeholder, 0, row.Hours, row.Km)}
		}
		return nil
	}

	if p == PolicyMaxEarner {
		top := 0
		for i := 1; i < len(earners); i++ {
			if earners[i].Earnings > earners[top].Earnings {
				top = i
			}
		}

		records := make([]models.ShiftRecord, len(earners))
		for i, e := range earners {
			if i == top {
				records[i] = income(row.Date, e.Platform, e.Earnings, row.Hours, row.Km)
			} else {
				records[i] = income(row.Date, e.Platform, e.Earnings, 0, 0)
			}
		}
		return records
	}

	hours := splitByShare(row.Hours, earners)
	km := splitByShare(row.Km, earners)

	records := make([]models.ShiftRecord, len(earners))
	for i, e := range earners {
		records[i] = income(row.Date, e.Platform, e.Earnings, hours[i], km[i])
	}
	return records
}

// splitByShare divides total across earners by earnings share. Shares are
// truncated and capped by what is left, so the last earner's remainder is
// never negative and the parts add up to total.
func splitByShare(total float64, earners []platformAmount) []float64 {
	parts := make([]float64, len(earners))
	if total == 0 {
		return parts
	}

	sum := decimal.Zero
	for _, e := range earners {
		sum = sum.Add(decimal.NewFromFloat(e.Earnings))
	}

	whole := decimal.NewFromFloat(total)
	assigned := decimal.Zero
	for i, e := range earners {
		var share decimal.Decimal
		if i == len(earners)-1 {
			share = whole.Sub(assigned)
		} else {
			share = whole.Mul(decimal.NewFromFloat(e.Earnings)).Div(sum).Truncate(allocationPlaces)
			share = decimal.Min(share, whole.Sub(assigned))
			assigned = assigned.Add(share)
		}
		parts[i], _ = share.Float64()
	}
	return parts
}

func income(date, platform string, earnings, hours, km float64) models.ShiftRecord {
	return models.ShiftRecord{
		Date:     date,
		Platform: platform,
		Earnings: earnings,
		Hours:    hours,
		Km:       km,
		Type:     models.RecordIncome,
	}
}
