package main

import (
	"fmt"

	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/jonathan/skillbridge/internal/session"
	"github.com/jonathan/skillbridge/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal interface",
	Long: `Opens the interactive analyzer. With --report-id or --url the shared report is
loaded first. Without model credentials shared reports can still be viewed.`,
	RunE: runTUI,
}

var (
	tuiReportID string
	tuiURL      string
)

func init() {
	tuiCmd.Flags().StringVar(&tuiReportID, "report-id", "", "Open a shared report by id")
	tuiCmd.Flags().StringVar(&tuiURL, "url", "", "Open a share link")
	tuiCmd.MarkFlagsMutuallyExclusive("report-id", "url")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	loc, err := tuiLocation(appConfig.BaseURL, tuiReportID, tuiURL)
	if err != nil {
		return err
	}

	// the terminal owns stdout and stderr while the program runs
	quiet := zap.NewNop()

	var analyzer session.Analyzer
	a, closeClient, err := newAnalyzer(ctx, appConfig, quiet)
	if err != nil {
		analyzer = unavailableAnalyzer{cause: err}
	} else {
		analyzer = a
		defer func() { _ = closeClient() }()
	}

	store, err := reports.Open(ctx, appConfig.StoreConfig(), quiet)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}
	defer store.Close()

	sess := session.New(analyzer, store, loc)
	return tui.Run(ctx, sess)
}

// tuiLocation builds the session address from a share link, a bare id or the
// configured base URL.
func tuiLocation(baseURL, reportID, link string) (*session.URLLocation, error) {
	if link != "" {
		return session.ParseLocation(link)
	}
	return session.NewLocation(baseURL, reportID)
}
