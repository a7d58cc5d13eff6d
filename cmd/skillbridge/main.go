// Package main provides the skillbridge command line: one-shot analyses, shared
// report lookup, the HTTP API server and the terminal UI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/skillbridge/internal/config"
	"github.com/jonathan/skillbridge/internal/observability"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	// set by PersistentPreRunE
	appConfig config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "skillbridge",
	Short: "Resume skill-gap analysis",
	Long: `SkillBridge compares a resume against a target job role and produces a skill-gap report:
per-skill levels, a week-by-week learning roadmap and practice project ideas.
Reports can be saved and shared by link.

Configuration is read from --config (JSON or YAML), then environment variables
(GEMINI_API_KEY, DATABASE_URL, SKILLBRIDGE_*), then command-line flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath, os.Getenv)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	appConfig = cfg

	l, err := observability.NewLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = l
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
