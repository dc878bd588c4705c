package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
)

func InitDatabase(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	logLevel := logger.Silent
	if cfg.Server.Env == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.DBName))

	if err := db.AutoMigrate(&models.Analysis{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database migration completed")

	return db, nil
}

// InitRepository opens the analysis store selected by DB_DRIVER. It returns a nil
// repository for DriverNone. The returned close func is never nil.
func InitRepository(ctx context.Context, cfg *Config, log *zap.Logger) (repositories.AnalysisRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Database.Driver {
	case DriverNone:
		log.Info("persistence disabled")
		return nil, noop, nil
	case DriverSQLite:
		db, repo, err := repositories.OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		log.Info("sqlite database opened", zap.String("path", cfg.Database.SQLitePath))
		return repo, db.Close, nil
	case DriverPostgres, "":
		db, err := InitDatabase(cfg, log)
		if err != nil {
			return nil, noop, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noop, fmt.Errorf("failed to get database handle: %w", err)
		}
		return repositories.NewAnalysisRepository(db), sqlDB.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}
