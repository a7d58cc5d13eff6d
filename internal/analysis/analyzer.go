// Package analysis turns a resume and target role into a validated skill-gap report
// by asking a structured-output model and checking what comes back.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jonathan/skillbridge/internal/llm"
	"github.com/jonathan/skillbridge/internal/prompts"
	"github.com/jonathan/skillbridge/internal/schemas"
	"github.com/jonathan/skillbridge/internal/types"
	"go.uber.org/zap"
)

// Defaults for an analysis request
const (
	DefaultMaxResumeChars = 20000
	DefaultTemperature    = 0.2
	DefaultTier           = llm.TierStandard

	promptFile = "analysis.json"
)

// Analyzer runs analyses against a model client. It holds no per-request state and
// is safe for concurrent use; serializing analyses is the caller's concern.
type Analyzer struct {
	client         llm.Client
	logger         *zap.Logger
	maxResumeChars int
	temperature    float32
	tier           llm.ModelTier
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMaxResumeChars overrides the resume truncation limit
func WithMaxResumeChars(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxResumeChars = n
		}
	}
}

// WithTemperature overrides the sampling temperature
func WithTemperature(t float32) Option {
	return func(a *Analyzer) {
		a.temperature = t
	}
}

// WithTier selects the model tier
func WithTier(tier llm.ModelTier) Option {
	return func(a *Analyzer) {
		a.tier = tier
	}
}

// New creates an Analyzer on top of client
func New(client llm.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:         client,
		logger:         zap.NewNop(),
		maxResumeChars: DefaultMaxResumeChars,
		temperature:    DefaultTemperature,
		tier:           DefaultTier,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze produces an AnalysisResult for the resume and target role.
// Every failure is an *AnalysisError; no partial result is ever returned.
func (a *Analyzer) Analyze(ctx context.Context, resumeText, targetRole string) (*types.AnalysisResult, error) {
	targetRole = strings.TrimSpace(targetRole)
	if targetRole == "" || strings.TrimSpace(resumeText) == "" {
		return nil, &AnalysisError{Kind: KindInvalidInput, Message: "resume text and target role are required"}
	}

	req, err := a.buildRequest(resumeText, targetRole)
	if err != nil {
		return nil, &AnalysisError{Kind: KindRequestFailed, Message: "failed to build prompt", Cause: err}
	}

	log := a.logger.With(zap.String("target_role", targetRole), zap.String("model", a.client.GetModel(a.tier)))
	log.Debug("requesting analysis", zap.Int("prompt_chars", len(req.Prompt)))

	raw, err := a.client.GenerateStructured(ctx, req)
	if err != nil {
		if errors.Is(err, llm.ErrNoContent) {
			log.Warn("model returned no content")
			return nil, &AnalysisError{Kind: KindEmptyResponse, Message: "empty response from model", Cause: err}
		}
		log.Error("model request failed", zap.Error(err), zap.Int("status", llm.StatusCode(err)))
		return nil, &AnalysisError{Kind: KindRequestFailed, Message: "model request failed", Cause: err}
	}
	if strings.TrimSpace(raw) == "" {
		log.Warn("model returned blank text")
		return nil, &AnalysisError{Kind: KindEmptyResponse, Message: "empty response from model"}
	}

	result, err := ParseResult(raw)
	if err != nil {
		log.Warn("model output rejected", zap.Error(err), zap.Int("response_chars", len(raw)))
		return nil, err
	}

	if names := result.InconsistentSkills(); len(names) > 0 {
		log.Warn("skill status disagrees with levels", zap.Strings("skills", names))
	}
	log.Info("analysis complete",
		zap.Int("match_score", result.OverallMatchScore),
		zap.Int("skills", len(result.SkillsAnalysis)),
		zap.Int("phases", len(result.Roadmap)))
	return result, nil
}

// ParseResult sanitizes raw model text and decodes it into a validated AnalysisResult.
// Anything that is not a schema-conforming result is a KindMalformedOutput error.
func ParseResult(raw string) (*types.AnalysisResult, error) {
	doc := llm.SanitizeJSON(raw)

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return nil, &AnalysisError{Kind: KindMalformedOutput, Message: "response is not valid JSON", Cause: err}
	}
	if err := schemas.ValidateAnalysisJSON(doc); err != nil {
		return nil, &AnalysisError{Kind: KindMalformedOutput, Message: "response does not match the analysis schema", Cause: err}
	}
	if err := result.Validate(); err != nil {
		return nil, &AnalysisError{Kind: KindMalformedOutput, Message: "response failed field validation", Cause: err}
	}
	return &result, nil
}

func (a *Analyzer) buildRequest(resumeText, targetRole string) (llm.StructuredRequest, error) {
	system, err := prompts.Render(promptFile, "system-instruction", map[string]string{
		"TargetRole": targetRole,
	})
	if err != nil {
		return llm.StructuredRequest{}, err
	}
	prompt, err := prompts.Render(promptFile, "user-prompt", map[string]string{
		"TargetRole": targetRole,
		"ResumeText": Truncate(resumeText, a.maxResumeChars),
	})
	if err != nil {
		return llm.StructuredRequest{}, err
	}

	return llm.StructuredRequest{
		Prompt:            prompt,
		SystemInstruction: system,
		Schema:            schemas.AnalysisSchema(),
		Temperature:       a.temperature,
		Tier:              a.tier,
	}, nil
}

// Truncate keeps at most limit characters (runes) of s, dropping the tail.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
