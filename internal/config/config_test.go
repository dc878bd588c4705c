package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromViperDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "LLM_PROVIDER", "LLM_TIMEOUT", "MAX_FILE_SIZE", "STORAGE_BACKEND", "QDRANT_COLLECTION", "UPLOAD_RETENTION"} {
		t.Setenv(key, "")
	}

	cfg := FromViper(NewViper())

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, int64(5*1024*1024), cfg.Storage.MaxFileSize)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
	assert.Equal(t, "resumes", cfg.Qdrant.Collection)
	assert.Equal(t, 720*time.Hour, cfg.Retention.MaxAge)
}

func TestFromViperEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "  sk-test  ")
	t.Setenv("LLM_TIMEOUT", "not-a-duration")
	t.Setenv("MAX_FILE_SIZE", "1024")

	cfg := FromViper(NewViper())

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey())
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLMAPIKeyName())
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout, "invalid durations fall back to the default")
	assert.Equal(t, int64(1024), cfg.Storage.MaxFileSize)
}

func TestLLMAPIKeyFollowsProvider(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: ProviderGemini, GeminiAPIKey: "g", OpenAIAPIKey: "o"}}
	assert.Equal(t, "g", cfg.LLMAPIKey())
	assert.Equal(t, "GEMINI_API_KEY", cfg.LLMAPIKeyName())
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "n"}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseDSN())
}

func TestInitRepository(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	t.Run("none", func(t *testing.T) {
		repo, closeFn, err := InitRepository(ctx, &Config{Database: DatabaseConfig{Driver: DriverNone}}, log)
		require.NoError(t, err)
		assert.Nil(t, repo)
		assert.NoError(t, closeFn())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "analyses.db")
		repo, closeFn, err := InitRepository(ctx, &Config{Database: DatabaseConfig{Driver: DriverSQLite, SQLitePath: path}}, log)
		require.NoError(t, err)
		require.NotNil(t, repo)
		assert.NoError(t, closeFn())
	})

	t.Run("unsupported", func(t *testing.T) {
		_, closeFn, err := InitRepository(ctx, &Config{Database: DatabaseConfig{Driver: "mysql"}}, log)
		assert.ErrorContains(t, err, "unsupported DB_DRIVER")
		assert.NotNil(t, closeFn)
	})
}
