package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	pb "github.com/intenza/hfeval/api/v1"
	"github.com/intenza/hfeval/internal/config"
	handler "github.com/intenza/hfeval/internal/grpc"
	"github.com/intenza/hfeval/internal/repository"
	"github.com/intenza/hfeval/internal/service"
	"github.com/intenza/hfeval/internal/session"
	"github.com/intenza/hfeval/pkg/cache"
	dbbuilder "github.com/intenza/hfeval/pkg/database"
	grpcsrv "github.com/intenza/hfeval/pkg/grpc/server"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	grpcServer *grpcsrv.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dbPool, err := dbbuilder.New(
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	if err := repository.Migrate(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	catalogueRepo := repository.NewCatalogueRepository(dbPool)
	if cfg.CatalogueSeedFile != "" {
		if err := seedCatalogue(ctx, catalogueRepo, cfg.CatalogueSeedFile, logger); err != nil {
			dbPool.Close()
			return nil, err
		}
	}

	cacheClient, err := cache.New(ctx,
		cache.WithAddress(cfg.RedisAddr),
	)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))

	responseRepo := repository.NewResponseRepository(dbPool)

	reportService := service.NewReportService(responseRepo, catalogueRepo, logger)
	sessions := session.NewStore(cacheClient, cfg.SessionTTL, logger)

	grpcHandlers := handler.NewGRPCHandlers(reportService, sessions, cacheClient, logger,
		cfg.CatalogueCacheTTL, cfg.ResponsesCacheTTL)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(cfg.GRPCLoggingEnabled),
		grpcsrv.WithMaxMessageBytes(cfg.GRPCMaxMessageBytes),
		grpcsrv.WithProbeInterval(cfg.HealthProbeInterval),
		grpcsrv.WithHealthProbe("database", dbPool.PingContext),
		grpcsrv.WithHealthProbe("cache", cacheClient.Ping),
	)
	if err != nil {
		cacheClient.Close()
		dbPool.Close()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterEvaluationServer(s, grpcHandlers)
	})

	return &App{
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		grpcServer: grpcServer,
	}, nil
}

func seedCatalogue(ctx context.Context, repo *repository.CatalogueRepository, path string, logger *zap.Logger) error {
	machines, questions, err := repository.LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("catalogue seed failed: %w", err)
	}
	if err := repo.ReplaceCatalogue(ctx, machines, questions); err != nil {
		return fmt.Errorf("catalogue seed failed: %w", err)
	}
	logger.Info("Catalogue seeded",
		zap.String("file", path),
		zap.Int("machines", len(machines)),
		zap.Int("questions", len(questions)))
	return nil
}

// Run serves until ctx is done, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")

	a.grpcServer.Start()

	<-ctx.Done()

	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := a.grpcServer.Shutdown(ctx); err != nil {
		a.logger.Warn("gRPC shutdown incomplete", zap.Error(err))
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Error("cache shutdown error", zap.Error(err))
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}

	a.logger.Info("shutdown completed")
	_ = a.logger.Sync()
	return nil
}
