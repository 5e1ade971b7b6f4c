package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mamadbah2/driverledger/internal/domain/models"
	repo "github.com/mamadbah2/driverledger/internal/repository/sheets"
	"github.com/mamadbah2/driverledger/internal/service/ledger"
	"github.com/mamadbah2/driverledger/internal/service/planner"
)

var amountPrinter = message.NewPrinter(language.MustParse("es-CL"))

// Service formats progress summaries and exports them to Google Sheets.
type Service struct {
	repo         repo.Repository
	summaryRange string
	logger       *zap.Logger
}

// NewService wires a new reporting service instance. A nil repository
// disables the spreadsheet export.
func NewService(repository repo.Repository, summaryRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, summaryRange: summaryRange, logger: logger}
}

// FormatProgress renders the month's progress as a short text message. The
// line about today is included only when today falls in the snapshot month.
func FormatProgress(snap ledger.Snapshot, today time.Time) string {
	result := snap.Plan
	var b strings.Builder

	fmt.Fprintf(&b, "Progress %s: %.1f%% of budget\n", snap.Month, result.CurrentProgress)
	fmt.Fprintf(&b, "Earned %s of %s (remaining %s)\n",
		FormatAmount(result.TotalEarnings), FormatAmount(result.Budget), FormatAmount(result.Remaining))

	if models.MonthOf(today) == snap.Month {
		date := today.Format(models.DateLayout)
		if target, err := planner.ClassifyDay(date, snap.Config, result.Plan); err == nil {
			fmt.Fprintf(&b, "Today (%s, %s): target %s, earned %s\n",
				date, target.Class, FormatAmount(target.Target), FormatAmount(earnedOn(snap.Shifts, date)))
		}
	}

	if result.TotalHours > 0 {
		fmt.Fprintf(&b, "Hourly rate %s/h over %.1f h", FormatAmount(result.HourlyRate), result.TotalHours)
	} else {
		b.WriteString("No hours logged yet")
	}

	return b.String()
}

// SummaryRow is the spreadsheet row for a summary: date, earnings, budget,
// progress and hourly rate.
func SummaryRow(snap ledger.Snapshot, today time.Time) []interface{} {
	result := snap.Plan
	return []interface{}{
		today.Format(models.DateLayout),
		round(result.TotalEarnings, 0),
		round(result.Budget, 0),
		round(result.CurrentProgress, 2),
		round(result.HourlyRate, 0),
	}
}

// Export appends the summary row to the configured sheet range.
func (s *Service) Export(ctx context.Context, snap ledger.Snapshot, today time.Time) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.WriteRow(ctx, s.summaryRange, SummaryRow(snap, today)); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	s.logger.Info("summary exported",
		zap.String("month", snap.Month.String()),
		zap.String("range", s.summaryRange))
	return nil
}

// FormatAmount renders a peso amount the way es-CL does: dot thousands
// separators and no decimals, e.g. $1.234.567.
func FormatAmount(v float64) string {
	pesos := decimal.NewFromFloat(v).Round(0)

	sign := ""
	if pesos.IsNegative() {
		sign, pesos = "-", pesos.Abs()
	}
	return sign + "$" + amountPrinter.Sprintf("%d", pesos.IntPart())
}

func earnedOn(shifts []models.ShiftRecord, date string) float64 {
	var total float64
	for _, s := range shifts {
		if s.Date == date {
			total += s.Earnings
		}
	}
	return total
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
