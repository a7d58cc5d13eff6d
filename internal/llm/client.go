package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/skillbridge/internal/schemas"
	"google.golang.org/api/option"
)

// ErrNoContent is returned when the model answered without any text payload.
var ErrNoContent = errors.New("model returned no text content")

// StructuredRequest is one request in structured-output mode.
type StructuredRequest struct {
	Prompt            string
	SystemInstruction string
	Schema            *schemas.Schema // constrains the response; nil means free-form JSON
	Temperature       float32
	Tier              ModelTier
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateStructured asks the model for JSON constrained by req.Schema and returns the raw text
	GenerateStructured(ctx context.Context, req StructuredRequest) (string, error)
	// GetModel returns the provider model name for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderVertex:
		return NewGenAIClient(ctx, config)
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for the Google Gemini API
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateStructured generates schema-constrained JSON using the request's model tier
func (c *GeminiClient) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(req.Temperature)
	model.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		model.ResponseSchema = toGeminiSchema(req.Schema)
	}
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemInstruction)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoContent
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", ErrNoContent
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", ErrNoContent
	}

	return strings.Join(parts, ""), nil
}

// toGeminiSchema converts the contract into the Gemini API schema type.
// Numeric bounds are not representable there and are enforced by local validation instead.
func toGeminiSchema(s *schemas.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        geminiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if s.Items != nil {
		out.Items = toGeminiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for _, name := range s.PropertyNames() {
			out.Properties[name] = toGeminiSchema(s.Properties[name])
		}
	}
	return out
}

func geminiType(t string) genai.Type {
	switch t {
	case schemas.TypeObject:
		return genai.TypeObject
	case schemas.TypeArray:
		return genai.TypeArray
	case schemas.TypeInteger:
		return genai.TypeInteger
	case schemas.TypeNumber:
		return genai.TypeNumber
	case schemas.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
