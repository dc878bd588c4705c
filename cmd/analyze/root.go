package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/logger"
)

const app = "resume-analyzer"

var (
	v = config.NewViper()

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "resume-analyzer scores resumes against job descriptions from the command line",
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// A missing .env is fine; the environment and flags still apply.
			_ = godotenv.Load()
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("provider", "", "generation provider: gemini or openai (env LLM_PROVIDER)")
	rootCmd.PersistentFlags().String("model", "", "generation model override (env LLM_MODEL)")

	v.BindPFlag("LOG_DEBUG", rootCmd.PersistentFlags().Lookup("debug"))
	v.BindPFlag("LOG_JSON", rootCmd.PersistentFlags().Lookup("json"))
	v.BindPFlag("LLM_PROVIDER", rootCmd.PersistentFlags().Lookup("provider"))
	v.BindPFlag("LLM_MODEL", rootCmd.PersistentFlags().Lookup("model"))
}

// setup resolves the configuration and a logger that keeps stdout free for results.
func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.FromViper(v)

	log, err := logger.NewStderr(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
