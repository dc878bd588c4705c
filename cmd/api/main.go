package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/bootstrap"
	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/handlers"
	"alfredoptarigan/resume-analyzer/internal/logger"
	"alfredoptarigan/resume-analyzer/internal/services"
)

// Multipart framing and the jobDescription field ride on top of the file itself.
const bodyLimitSlack = 1 << 20

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("creating a logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// Persistence is best-effort: analyses still succeed without a database.
	repo, closeDB, err := config.InitRepository(ctx, cfg, zlog)
	if err != nil {
		zlog.Warn("database unavailable, persistence disabled", zap.Error(err))
		repo = nil
	}
	defer closeDB()

	storage, err := bootstrap.NewUploadStorage(ctx, cfg, zlog)
	if err != nil {
		zlog.Warn("upload storage unavailable, archival disabled", zap.Error(err))
		storage = nil
	}

	generation, err := bootstrap.NewGeneration(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize generation backend", zap.Error(err))
	}

	index, err := bootstrap.NewResumeIndex(ctx, cfg, generation.Embedder, zlog)
	if err != nil {
		zlog.Warn("resume index unavailable, search disabled", zap.Error(err))
		index = nil
	}
	if index != nil {
		defer index.Close()
	}

	notifier, err := bootstrap.NewNotifier(cfg, zlog)
	if err != nil {
		zlog.Warn("broker unavailable, analysis events disabled", zap.Error(err))
		notifier = nil
	}
	if notifier != nil {
		defer notifier.Close()
	}

	opts := []services.AnalyzerOption{services.WithCredentialName(cfg.LLMAPIKeyName())}
	if repo != nil {
		opts = append(opts, services.WithRepository(repo))
	}
	if storage != nil {
		opts = append(opts, services.WithUploadStorage(storage))
	}
	if index != nil {
		opts = append(opts, services.WithResumeIndex(index))
	}
	if notifier != nil {
		opts = append(opts, services.WithNotifier(notifier))
	}

	analyzer := services.NewAnalyzerService(
		services.NewTextExtractor(),
		generation.Suggestions(zlog),
		zlog,
		opts...,
	)

	var cleanup services.CleanupJob
	if storage != nil && cfg.Retention.MaxAge > 0 {
		cleanup = services.NewCleanupJob(storage, cfg.Retention.MaxAge, cfg.Retention.Schedule, zlog)
		if err := cleanup.Start(); err != nil {
			zlog.Fatal("failed to start upload cleanup", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "Resume ATS Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + bodyLimitSlack,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.SetupRoutes(app, handlers.Handlers{
		Analyze: handlers.NewAnalyzeHandler(analyzer, cfg.Storage.MaxFileSize, zlog),
		Result:  handlers.NewResultHandler(repo, storage, zlog),
		Search:  handlers.NewSearchHandler(index, zlog),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		if cleanup != nil {
			cleanup.Stop()
		}
		if err := app.Shutdown(); err != nil {
			zlog.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
