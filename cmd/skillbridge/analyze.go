package main

import (
	"errors"
	"fmt"

	"github.com/jonathan/skillbridge/internal/observability"
	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/jonathan/skillbridge/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume against a target job role",
	Long: `Sends the resume and target role to the model and prints the skill-gap report.

The resume is read from a .txt or .md file, or from stdin when --resume is "-" or omitted.
With --share the report is saved and a share link is printed.`,
	Example: `  skillbridge analyze --resume resume.md --role "Platform Engineer"
  cat resume.txt | skillbridge analyze --role "Data Analyst" --format json --out report.json
  skillbridge analyze --resume resume.md --role SRE --share`,
	RunE: runAnalyze,
}

var (
	analyzeResume string
	analyzeRole   string
	analyzeShare  bool
	analyzeOut    string
	analyzeFormat string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Resume file (.txt or .md), \"-\" for stdin")
	analyzeCmd.Flags().StringVar(&analyzeRole, "role", "", "Target job role")
	analyzeCmd.Flags().BoolVar(&analyzeShare, "share", false, "Save the report and print a share link")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the report to this file instead of stdout")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", formatSummary, "Output format: summary, markdown or json")
	_ = analyzeCmd.MarkFlagRequired("role")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if err := validFormat(analyzeFormat); err != nil {
		return err
	}
	ctx := cmd.Context()

	resume, err := readResume(analyzeResume, cmd.InOrStdin())
	if err != nil {
		return err
	}

	analyzer, closeClient, err := newAnalyzer(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeClient() }()

	var store reports.Store
	if analyzeShare {
		store, err = reports.Open(ctx, appConfig.StoreConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to open report store: %w", err)
		}
		defer store.Close()
	}

	loc, err := session.ParseLocation(appConfig.BaseURL)
	if err != nil {
		return err
	}
	sess := session.New(analyzer, store, loc, session.WithLogger(logger))

	if err := sess.Analyze(ctx, resume, analyzeRole); err != nil {
		logger.Debug("analysis failed", zap.Error(err))
		return errors.New(sess.Snapshot().Error)
	}
	result := sess.Snapshot().Result

	if err := writeOutput(cmd.OutOrStdout(), analyzeOut, result, analyzeFormat); err != nil {
		return err
	}
	if analyzeOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", analyzeOut)
	}

	if !analyzeShare {
		return nil
	}
	id, err := sess.Share(ctx)
	if err != nil {
		logger.Debug("share failed", zap.Error(err))
		return errors.New(sess.Snapshot().ShareErr)
	}
	observability.NewPrinter(cmd.ErrOrStderr()).PrintShareLink(id.String(), sess.Snapshot().ShareURL)
	return nil
}
