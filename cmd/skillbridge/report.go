package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/skillbridge/internal/analysis"
	"github.com/jonathan/skillbridge/internal/observability"
	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/jonathan/skillbridge/internal/schemas"
	"github.com/jonathan/skillbridge/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show or save shared reports",
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report-id | share-link>",
	Short: "Print a shared report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

var reportSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a report JSON file and print its share link",
	RunE:  runReportSave,
}

var (
	reportFormat string
	reportOut    string
	reportIn     string
)

func init() {
	reportShowCmd.Flags().StringVarP(&reportFormat, "format", "f", formatSummary, "Output format: summary, markdown or json")
	reportShowCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write the report to this file instead of stdout")

	reportSaveCmd.Flags().StringVarP(&reportIn, "in", "i", "", "Report JSON file, as written by 'analyze --format json'")
	_ = reportSaveCmd.MarkFlagRequired("in")

	reportCmd.AddCommand(reportShowCmd, reportSaveCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportShow(cmd *cobra.Command, args []string) error {
	if err := validFormat(reportFormat); err != nil {
		return err
	}
	id, err := resolveReportID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := reports.Open(ctx, appConfig.StoreConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}
	defer store.Close()

	loc, err := session.NewLocation(appConfig.BaseURL, id)
	if err != nil {
		return err
	}
	sess := session.New(nil, store, loc, session.WithLogger(logger))
	if err := sess.Start(ctx); err != nil {
		logger.Debug("restore failed", zap.Error(err))
		return errors.New(sess.Snapshot().Error)
	}

	return writeOutput(cmd.OutOrStdout(), reportOut, sess.Snapshot().Result, reportFormat)
}

func runReportSave(cmd *cobra.Command, _ []string) error {
	// schema errors list every offending field
	if err := schemas.ValidateAnalysisFile(reportIn); err != nil {
		return fmt.Errorf("invalid report %s: %w", reportIn, err)
	}
	data, err := os.ReadFile(reportIn)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	result, err := analysis.ParseResult(string(data))
	if err != nil {
		return fmt.Errorf("invalid report %s: %w", reportIn, err)
	}

	ctx := cmd.Context()
	store, err := reports.Open(ctx, appConfig.StoreConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}
	defer store.Close()

	id, err := store.Save(ctx, result)
	if err != nil {
		if reports.IsKind(err, reports.KindCapacityExceeded) {
			return errors.New(session.MsgStorageFull)
		}
		return fmt.Errorf("%s: %w", session.MsgShareFailed, err)
	}

	loc, err := session.ParseLocation(appConfig.BaseURL)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintShareLink(id.String(), loc.ShareURL(id.String()))
	return nil
}
