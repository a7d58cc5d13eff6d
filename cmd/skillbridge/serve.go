package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/jonathan/skillbridge/internal/server"
	"github.com/jonathan/skillbridge/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing analysis, report sharing and report lookup endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, closeClient, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeClient() }()

	store, err := reports.Open(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}
	defer store.Close()

	srv, err := server.New(server.Config{
		Port:                  cfg.Port,
		BaseURL:               cfg.BaseURL,
		AllowedOrigin:         cfg.AllowedOrigin,
		MaxConcurrentAnalyses: int64(cfg.MaxConcurrentAnalyses),
		RateLimit:             ratelimit.LoadConfig(os.Getenv),
	}, analyzer, store, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
