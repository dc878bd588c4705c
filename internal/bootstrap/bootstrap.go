// Package bootstrap builds the optional backends shared by the HTTP server and the CLI.
// Every constructor returns a nil component when the backend is not configured.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/services"
)

// Generation holds the configured LLM backend. Embedder is nil unless the provider can embed.
type Generation struct {
	Generator services.TextGenerator
	Embedder  services.Embedder
}

// NewGeneration builds the text generator of the selected provider. Without a credential it
// returns an empty Generation so that analyses report the missing key.
func NewGeneration(ctx context.Context, cfg *config.Config, log *zap.Logger) (Generation, error) {
	if cfg.LLMAPIKey() == "" {
		log.Warn("no LLM credential configured", zap.String("key", cfg.LLMAPIKeyName()))
		return Generation{}, nil
	}

	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		svc := services.NewOpenAIService(cfg.LLM.OpenAIAPIKey, cfg.LLM.Model, cfg.LLM.Timeout,
			services.WithOpenAIBaseURL(cfg.LLM.OpenAIBaseURL))
		log.Info("openai generation enabled", zap.String("base_url", cfg.LLM.OpenAIBaseURL))
		return Generation{Generator: svc}, nil
	case config.ProviderGemini, "":
		svc, err := services.NewGeminiService(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model, cfg.LLM.Timeout, log)
		if err != nil {
			return Generation{}, fmt.Errorf("failed to initialize gemini: %w", err)
		}
		log.Info("gemini generation enabled")
		return Generation{Generator: svc, Embedder: svc}, nil
	default:
		return Generation{}, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLM.Provider)
	}
}

// Suggestions wraps the generator, or returns nil when generation is not configured.
func (g Generation) Suggestions(log *zap.Logger) services.SuggestionGenerator {
	if g.Generator == nil {
		return nil
	}
	return services.NewSuggestionGenerator(g.Generator, log)
}

// NewUploadStorage builds the archive backend selected by STORAGE_BACKEND.
func NewUploadStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.UploadStorage, error) {
	switch cfg.Storage.Backend {
	case config.StorageNone:
		log.Info("upload archival disabled")
		return nil, nil
	case config.StorageS3:
		s3cfg := cfg.Storage.S3
		client, err := services.NewS3Client(ctx, services.S3StorageConfig{
			Bucket:    s3cfg.Bucket,
			Endpoint:  s3cfg.Endpoint,
			Region:    s3cfg.Region,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		storage, err := services.NewS3Storage(client, s3cfg.Bucket)
		if err != nil {
			return nil, err
		}
		log.Info("s3 upload archival enabled", zap.String("bucket", s3cfg.Bucket))
		return storage, nil
	case config.StorageLocal, "":
		storage, err := services.NewLocalStorage(cfg.Storage.UploadPath)
		if err != nil {
			return nil, err
		}
		log.Info("local upload archival enabled", zap.String("path", cfg.Storage.UploadPath))
		return storage, nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
}

// NewResumeIndex connects to Qdrant when QDRANT_URL is set and an embedder is available.
func NewResumeIndex(ctx context.Context, cfg *config.Config, embedder services.Embedder, log *zap.Logger) (services.ResumeIndex, error) {
	if cfg.Qdrant.URL == "" {
		return nil, nil
	}
	if embedder == nil {
		log.Warn("resume index requires an embedding provider, search disabled", zap.String("provider", cfg.LLM.Provider))
		return nil, nil
	}

	client, err := services.NewQdrantClient(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
	if err != nil {
		return nil, err
	}

	index := services.NewResumeIndex(client, embedder, cfg.Qdrant.Collection, log)
	if err := index.InitCollection(ctx); err != nil {
		index.Close()
		return nil, err
	}

	log.Info("resume index enabled", zap.String("collection", cfg.Qdrant.Collection))
	return index, nil
}

// NewNotifier dials RabbitMQ when RABBITMQ_URL is set.
func NewNotifier(cfg *config.Config, log *zap.Logger) (services.Notifier, error) {
	if cfg.Broker.URL == "" {
		return nil, nil
	}

	notifier, err := services.DialNotifier(cfg.Broker.URL, cfg.Broker.Exchange)
	if err != nil {
		return nil, err
	}

	log.Info("analysis events enabled", zap.String("exchange", cfg.Broker.Exchange))
	return notifier, nil
}
