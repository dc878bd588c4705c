package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/bootstrap"
	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/services"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a PDF or DOCX resume against a job description and print the JSON result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalyze(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "path to the resume (.pdf or .docx)")
	analyzeCmd.Flags().String("job", "", "path to a text file holding the job description")
	analyzeCmd.Flags().String("job-text", "", "job description given inline")
	analyzeCmd.Flags().Bool("persist", false, "store the analysis with the configured database and upload storage")

	analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "job-text")
	analyzeCmd.MarkFlagsOneRequired("job", "job-text")

	v.BindPFlag("analyze.resume", analyzeCmd.Flags().Lookup("resume"))
	v.BindPFlag("analyze.job", analyzeCmd.Flags().Lookup("job"))
	v.BindPFlag("analyze.job-text", analyzeCmd.Flags().Lookup("job-text"))
	v.BindPFlag("analyze.persist", analyzeCmd.Flags().Lookup("persist"))
}

func runAnalyze(ctx context.Context, out io.Writer) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	req, err := readAnalysisRequest(
		v.GetString("analyze.resume"),
		v.GetString("analyze.job"),
		v.GetString("analyze.job-text"),
	)
	if err != nil {
		return err
	}

	generation, err := bootstrap.NewGeneration(ctx, cfg, log)
	if err != nil {
		return err
	}

	opts := []services.AnalyzerOption{services.WithCredentialName(cfg.LLMAPIKeyName())}
	if v.GetBool("analyze.persist") {
		persistOpts, closeFn, err := persistenceOptions(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()
		opts = append(opts, persistOpts...)
	}

	analyzer := services.NewAnalyzerService(services.NewTextExtractor(), generation.Suggestions(log), log, opts...)

	resp, err := analyzer.Analyze(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// readAnalysisRequest loads the resume and job description. The content type comes from the file extension.
func readAnalysisRequest(resumePath, jobPath, jobText string) (services.AnalysisRequest, error) {
	data, err := os.ReadFile(resumePath)
	if err != nil {
		return services.AnalysisRequest{}, fmt.Errorf("failed to read resume: %w", err)
	}

	if jobPath != "" {
		job, err := os.ReadFile(jobPath)
		if err != nil {
			return services.AnalysisRequest{}, fmt.Errorf("failed to read job description: %w", err)
		}
		jobText = string(job)
	}

	return services.AnalysisRequest{
		ResumeBytes:    data,
		ContentType:    services.ContentTypeForKey(resumePath),
		Filename:       filepath.Base(resumePath),
		JobDescription: jobText,
	}, nil
}

// persistenceOptions wires the database and upload storage. Index and broker stay server-side.
func persistenceOptions(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]services.AnalyzerOption, func() error, error) {
	repo, closeDB, err := config.InitRepository(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if repo == nil {
		return nil, closeDB, errors.New("--persist needs DB_DRIVER other than none")
	}

	opts := []services.AnalyzerOption{services.WithRepository(repo)}

	storage, err := bootstrap.NewUploadStorage(ctx, cfg, log)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	if storage != nil {
		opts = append(opts, services.WithUploadStorage(storage))
	}

	return opts, closeDB, nil
}
