package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/config"
	"github.com/mamadbah2/driverledger/internal/domain/models"
	"github.com/mamadbah2/driverledger/internal/repository/mongodb"
	"github.com/mamadbah2/driverledger/internal/repository/sheets"
	"github.com/mamadbah2/driverledger/internal/scheduler"
	"github.com/mamadbah2/driverledger/internal/server/handlers"
	"github.com/mamadbah2/driverledger/internal/server/router"
	importsvc "github.com/mamadbah2/driverledger/internal/service/importer"
	"github.com/mamadbah2/driverledger/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/driverledger/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/driverledger/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/driverledger/pkg/clients/whatsapp"
	"github.com/mamadbah2/driverledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.NewWithLevel(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	// Interface values stay nil when an integration is disabled.
	var (
		summaryRepo sheets.Repository
		sheetReader importsvc.SheetReader
	)
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		summaryRepo = sheetsRepo
		sheetReader = sheetsRepo
	} else {
		baseLogger.Warn("google sheets not configured, sheet import and summary export disabled")
	}

	var notifier whatsappsvc.Notifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		notifier = whatsappsvc.NewMetaWhatsAppService(whatsClient, cfg.WhatsApp.Recipient, baseLogger.Named("svc.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp not configured, daily summaries will not be sent")
	}

	store := ledger.NewStore(mongoRepo, baseLogger.Named("ledger"))
	if _, err := store.Load(ctx, models.MonthOf(time.Now())); err != nil {
		baseLogger.Fatal("failed to load current month", zap.Error(err))
	}
	go func() {
		if err := store.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			baseLogger.Warn("shift change stream stopped", zap.Error(err))
		}
	}()

	importOpts, err := importsvc.OptionsFromConfig(cfg.Import)
	if err != nil {
		baseLogger.Fatal("invalid import configuration", zap.Error(err))
	}
	writer := importsvc.NewBatchWriter(mongoRepo, cfg.Import.GroupSize, cfg.Import.WriteTimeout, baseLogger.Named("import.writer"))
	importService := importsvc.NewService(writer, importOpts, baseLogger.Named("svc.import"))

	reportingSvc := reportingsvc.NewService(summaryRepo, cfg.Sheets.SummaryRange, baseLogger.Named("svc.reporting"))

	ledgerHandler := handlers.NewLedgerHandler(store, baseLogger.Named("handlers.ledger"))
	importHandler := handlers.NewImportHandler(importService, sheetReader, store, baseLogger.Named("handlers.import"))
	engine := router.New(ledgerHandler, importHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, store, reportingSvc, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
