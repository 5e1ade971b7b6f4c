package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/driverledger/internal/domain/models"
	"github.com/mamadbah2/driverledger/internal/service/ledger"
	"github.com/mamadbah2/driverledger/internal/service/planner"
	"github.com/mamadbah2/driverledger/internal/service/reporting"
	"github.com/mamadbah2/driverledger/pkg/logger"
)

type monthLoader interface {
	View(ctx context.Context, month models.YearMonth) (ledger.Snapshot, error)
}

var planCmd = LeafCommand{
	Use:   "plan",
	Short: "Print the weighted goal plan and progress for a month",
	Args:  cobra.NoArgs,
	BoolFlags: []BoolFlag{
		{Name: "json", Usage: "print the plan as JSON"},
	},
	StrFlags: []StringFlag{
		{Name: "month", Usage: "month to plan (YYYY-MM, default: current month)"},
		{Name: "date", Usage: "also print the target of this date (YYYY-MM-DD)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		monthFlag, _ := cmd.Flags().GetString("month")
		dateFlag, _ := cmd.Flags().GetString("date")
		asJSON, _ := cmd.Flags().GetBool("json")

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		repo, err := rt.connect(commandContext(cmd))
		if err != nil {
			return err
		}

		store := ledger.NewStore(repo, logger.Named(rt.logger, "ledger"))
		return runPlan(cmd, store, monthFlag, dateFlag, asJSON, time.Now)
	},
}.Build()

func runPlan(cmd *cobra.Command, loader monthLoader, monthFlag, dateFlag string, asJSON bool, nowFn func() time.Time) error {
	now := nowFn()

	var date time.Time
	if dateFlag != "" {
		d, err := time.Parse(models.DateLayout, dateFlag)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dateFlag)
		}
		date = d
	}

	month := models.MonthOf(now)
	switch {
	case monthFlag != "":
		m, err := models.ParseYearMonth(monthFlag)
		if err != nil {
			return err
		}
		month = m
	case dateFlag != "":
		month = models.MonthOf(date)
	}

	if dateFlag != "" && models.MonthOf(date) != month {
		return fmt.Errorf("date %s is outside %s", dateFlag, month)
	}

	snap, err := loader.View(commandContext(cmd), month)
	if err != nil {
		return err
	}

	var day *models.DayTarget
	if dateFlag != "" {
		target, err := planner.ClassifyDay(dateFlag, snap.Config, snap.Plan.Plan)
		if err != nil {
			return err
		}
		day = &target
	}

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Plan models.PlanResult `json:"plan"`
			Day  *models.DayTarget `json:"day,omitempty"`
		}{snap.Plan, day})
	}

	p := snap.Plan.Plan
	fmt.Fprintln(w, Primary("plan "+month.String()))
	fmt.Fprintf(w, "budget %s over %d work days (%d normal, %d high), weight %.0f\n",
		reporting.FormatAmount(snap.Plan.Budget), p.WorkDays, p.NormalDays, p.HighDays, p.TotalWeight)
	fmt.Fprintf(w, "normal day goal %s, high day goal %s\n",
		Info(reporting.FormatAmount(p.NormalGoal)), Info(reporting.FormatAmount(p.HighGoal)))
	if day != nil {
		fmt.Fprintf(w, "%s (%s): target %s\n", day.Date, day.Class, Info(reporting.FormatAmount(day.Target)))
	}
	fmt.Fprintln(w, reporting.FormatProgress(snap, now))
	return nil
}

