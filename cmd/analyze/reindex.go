package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/bootstrap"
	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/repositories"
	"alfredoptarigan/resume-analyzer/internal/services"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed the most recent stored analyses into the resume search index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReindex(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().Int("limit", repositories.MaxListLimit, "number of most recent analyses to index")
	v.BindPFlag("reindex.limit", reindexCmd.Flags().Lookup("limit"))
}

func runReindex(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	repo, closeDB, err := config.InitRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()
	if repo == nil {
		return errors.New("reindex needs DB_DRIVER other than none")
	}

	generation, err := bootstrap.NewGeneration(ctx, cfg, log)
	if err != nil {
		return err
	}
	index, err := bootstrap.NewResumeIndex(ctx, cfg, generation.Embedder, log)
	if err != nil {
		return err
	}
	if index == nil {
		return errors.New("reindex needs QDRANT_URL and an embedding provider (gemini)")
	}
	defer index.Close()

	return reindex(ctx, repo, index, v.GetInt("reindex.limit"), log)
}

func reindex(ctx context.Context, repo repositories.AnalysisRepository, index services.ResumeIndex, limit int, log *zap.Logger) error {
	analyses, err := repo.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	successCount, failCount := 0, 0
	for _, analysis := range analyses {
		// Chunk boundaries may have changed, so stale points go first.
		if err := index.DeleteResume(ctx, analysis.ID); err != nil {
			log.Warn("failed to clear indexed analysis", zap.String("id", analysis.ID.String()), zap.Error(err))
			failCount++
			continue
		}

		chunks, err := index.IndexResume(ctx, analysis.ID, analysis.OriginalFilename, analysis.ParsedContent)
		if err != nil {
			log.Warn("failed to index analysis", zap.String("id", analysis.ID.String()), zap.Error(err))
			failCount++
			continue
		}
		log.Debug("analysis indexed", zap.String("id", analysis.ID.String()), zap.Int("chunks", chunks))
		successCount++
	}

	log.Info("reindex finished", zap.Int("indexed", successCount), zap.Int("failed", failCount))

	if failCount > 0 {
		return fmt.Errorf("%d of %d analyses failed to index", failCount, len(analyses))
	}
	return nil
}
