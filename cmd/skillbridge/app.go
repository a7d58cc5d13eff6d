package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/skillbridge/internal/analysis"
	"github.com/jonathan/skillbridge/internal/config"
	"github.com/jonathan/skillbridge/internal/llm"
	"github.com/jonathan/skillbridge/internal/observability"
	"github.com/jonathan/skillbridge/internal/session"
	"github.com/jonathan/skillbridge/internal/types"
	"go.uber.org/zap"
)

// Output formats
const (
	formatSummary  = "summary"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

var formats = []string{formatSummary, formatMarkdown, formatJSON}

// loadConfig layers the optional config file, the environment and the defaults,
// then validates the result.
func loadConfig(path string, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return config.Config{}, err
	}

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// newAnalyzer builds the model client and orchestrator. The returned closer
// releases the client.
func newAnalyzer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*analysis.Analyzer, func() error, error) {
	llmCfg := cfg.LLMConfig()
	if llmCfg.Provider == llm.ProviderGemini && cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("GEMINI_API_KEY environment variable or api_key config is required")
	}

	client, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}

	a := analysis.New(client,
		analysis.WithLogger(logger),
		analysis.WithMaxResumeChars(cfg.MaxResumeChars),
		analysis.WithTemperature(cfg.TemperatureValue()),
	)
	return a, client.Close, nil
}

// unavailableAnalyzer stands in when no model client could be built, so that
// shared reports can still be viewed.
type unavailableAnalyzer struct {
	cause error
}

func (a unavailableAnalyzer) Analyze(context.Context, string, string) (*types.AnalysisResult, error) {
	return nil, &analysis.AnalysisError{
		Kind:    analysis.KindRequestFailed,
		Message: "model client unavailable",
		Cause:   a.cause,
	}
}

// readResume reads resume text from a .txt or .md file, or from stdin when path
// is empty or "-".
func readResume(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case path == "" || path == "-":
		data, err = io.ReadAll(stdin)
	case ext == ".pdf":
		return "", fmt.Errorf("PDF resumes are not supported: export %s as plain text (.txt) or Markdown (.md)", path)
	case ext == ".txt" || ext == ".md" || ext == ".markdown" || ext == "":
		data, err = os.ReadFile(path)
	default:
		return "", fmt.Errorf("unsupported resume format %q: use .txt or .md", ext)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read resume: %w", err)
	}
	return string(data), nil
}

// resolveReportID accepts a bare report identifier or a share link
func resolveReportID(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if !strings.Contains(arg, "://") {
		if arg == "" {
			return "", fmt.Errorf("report id is required")
		}
		return arg, nil
	}
	return session.ReportIDFromURL(arg)
}

func validFormat(format string) error {
	for _, f := range formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q: must be one of %s", format, strings.Join(formats, ", "))
}

// writeReport renders result in the requested format
func writeReport(w io.Writer, result *types.AnalysisResult, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatMarkdown:
		_, err := io.WriteString(w, observability.Markdown(result))
		return err
	case formatSummary:
		observability.NewPrinter(w).PrintAnalysis(result)
		return nil
	default:
		return validFormat(format)
	}
}

// writeOutput writes the report to path, or to w when path is empty
func writeOutput(w io.Writer, path string, result *types.AnalysisResult, format string) error {
	if path == "" {
		return writeReport(w, result, format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeReport(f, result, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
