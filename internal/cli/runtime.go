package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/config"
	"github.com/mamadbah2/driverledger/internal/repository/mongodb"
	"github.com/mamadbah2/driverledger/internal/service/importer"
	"github.com/mamadbah2/driverledger/pkg/logger"
)

// runtime holds what every command needs: configuration, a logger and,
// once connected, the Mongo repository.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	repo   *mongodb.MongoDBRepository
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	envFile, _ := cmd.Flags().GetString("env")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewConsole(verbose)
	if err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, logger: log}, nil
}

func (r *runtime) connect(ctx context.Context) (*mongodb.MongoDBRepository, error) {
	if r.repo != nil {
		return r.repo, nil
	}
	repo, err := mongodb.NewMongoDBRepository(ctx, r.cfg.MongoDB.URI, r.cfg.MongoDB.DBName, logger.Named(r.logger, "repo.mongodb"))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	r.repo = repo
	return repo, nil
}

// importService builds the import pipeline. Dry runs never write, so they
// skip the database connection.
func (r *runtime) importService(ctx context.Context, dryRun bool) (*importer.Service, error) {
	opts, err := importer.OptionsFromConfig(r.cfg.Import)
	if err != nil {
		return nil, err
	}

	var inserter importer.Inserter
	if !dryRun {
		repo, err := r.connect(ctx)
		if err != nil {
			return nil, err
		}
		inserter = repo
	}

	writer := importer.NewBatchWriter(inserter, r.cfg.Import.GroupSize, r.cfg.Import.WriteTimeout, logger.Named(r.logger, "import.writer"))
	return importer.NewService(writer, opts, logger.Named(r.logger, "svc.import")), nil
}

func (r *runtime) close() {
	if r.repo != nil {
		if err := r.repo.Close(context.Background()); err != nil {
			r.logger.Warn("failed to close mongodb connection", zap.Error(err))
		}
	}
	_ = r.logger.Sync()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
