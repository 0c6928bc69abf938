package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/config"
	"github.com/seqcat-bio/seqcat-engine/pkg/database"
	"github.com/seqcat-bio/seqcat-engine/pkg/handlers"
	"github.com/seqcat-bio/seqcat-engine/pkg/logging"
	"github.com/seqcat-bio/seqcat-engine/pkg/middleware"
	"github.com/seqcat-bio/seqcat-engine/pkg/portal"
	"github.com/seqcat-bio/seqcat-engine/pkg/repositories"
	"github.com/seqcat-bio/seqcat-engine/pkg/retry"
	"github.com/seqcat-bio/seqcat-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("portal", cfg.Portal.BaseURL),
		zap.String("data_portal", cfg.Portal.DataPortal),
		zap.String("database", cfg.Database.Database))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run over database/sql; the pgx pool serves requests.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	client := portal.NewClient(
		cfg.Portal.BaseURL,
		portal.DataPortal(cfg.Portal.DataPortal),
		portal.Credentials{
			Username: cfg.Portal.DataHubUsername,
			Password: cfg.Portal.DataHubPassword,
		},
		&retry.Config{
			MaxAttempts: cfg.Portal.RetryAttempts,
			Delay:       cfg.Portal.RetryDelay(),
		},
		logger)

	archiveStudies := repositories.NewArchiveStudyRepository(db)
	archiveSamples := repositories.NewArchiveSampleRepository(db)
	studies := repositories.NewStudyRepository(db)
	samples := repositories.NewSampleRepository(db)
	runs := repositories.NewRunRepository(db)
	assemblies := repositories.NewAssemblyRepository(db)

	syncService := services.NewPortalSyncService(client,
		services.SyncConfig{
			PageSize:         cfg.Sync.PageSize,
			DataHubSubmitter: cfg.Sync.DataHubSubmitter,
		},
		archiveStudies, archiveSamples,
		studies, samples, runs, assemblies,
		logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewSyncHandler(syncService, studies, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting seqcat-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
