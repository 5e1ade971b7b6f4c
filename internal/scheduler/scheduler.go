package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/config"
	"github.com/mamadbah2/driverledger/internal/domain/models"
	"github.com/mamadbah2/driverledger/internal/service/ledger"
	"github.com/mamadbah2/driverledger/internal/service/reporting"
	"github.com/mamadbah2/driverledger/internal/service/whatsapp"
)

// rolloverSpec activates the new month at local midnight on the 1st.
const rolloverSpec = "0 0 1 * *"

// MonthLoader makes a month the ledger's active month.
type MonthLoader interface {
	Load(ctx context.Context, month models.YearMonth) (ledger.Snapshot, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	spec         string
	location     *time.Location
	store        MonthLoader
	reportingSvc *reporting.Service
	notifier     whatsapp.Notifier
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a new scheduler instance. notifier may be nil when
// WhatsApp is not configured.
func NewScheduler(cfg config.ReportingConfig, store MonthLoader, reportingSvc *reporting.Service, notifier whatsapp.Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	// Standard 5-field cron expressions evaluated in the configured timezone.
	c := cron.New(cron.WithLocation(location))

	return &Scheduler{
		cron:         c,
		spec:         cfg.CronSchedule,
		location:     location,
		store:        store,
		reportingSvc: reportingSvc,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Start registers the daily summary and month rollover jobs and starts the
// scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sendDailySummary); err != nil {
		return fmt.Errorf("schedule daily summary %q: %w", s.spec, err)
	}
	if _, err := s.cron.AddFunc(rolloverSpec, s.rollover); err != nil {
		return fmt.Errorf("schedule month rollover: %w", err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.spec), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("daily summary failed", zap.Error(err))
	}
}

func (s *Scheduler) rollover() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.Rollover(ctx); err != nil {
		s.logger.Error("month rollover failed", zap.Error(err))
	}
}

// Rollover makes the current local month the ledger's active month.
func (s *Scheduler) Rollover(ctx context.Context) error {
	month := models.MonthOf(s.now().In(s.location))
	if _, err := s.store.Load(ctx, month); err != nil {
		return fmt.Errorf("activate %s: %w", month, err)
	}
	s.logger.Info("active month rolled over", zap.String("month", month.String()))
	return nil
}

// RunOnce builds today's summary, sends it and exports it. It returns the
// message text.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	today := s.now().In(s.location)
	month := models.MonthOf(today)

	snap, err := s.store.Load(ctx, month)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", month, err)
	}

	message := reporting.FormatProgress(snap, today)

	var firstErr error
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, message); err != nil {
			s.logger.Error("failed to send daily summary", zap.Error(err))
			firstErr = err
		} else {
			s.logger.Info("daily summary sent", zap.String("month", month.String()))
		}
	}

	if s.reportingSvc != nil {
		if err := s.reportingSvc.Export(ctx, snap, today); err != nil {
			s.logger.Error("failed to export daily summary", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return message, firstErr
}
