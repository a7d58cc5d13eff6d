package llm

import (
	"context"
	"fmt"

	"github.com/jonathan/skillbridge/internal/schemas"
	"google.golang.org/genai"
)

// GenAIClient implements Client on the unified genai SDK with the Vertex AI backend
type GenAIClient struct {
	client *genai.Client
	config *Config
}

// NewGenAIClient creates a Vertex AI client using application default credentials
func NewGenAIClient(ctx context.Context, config *Config) (*GenAIClient, error) {
	if config.Project == "" || config.Location == "" {
		return nil, fmt.Errorf("project and location are required for provider %s", ProviderVertex)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Project,
		Location: config.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &GenAIClient{client: client, config: config}, nil
}

// GenerateStructured generates schema-constrained JSON using the request's model tier
func (c *GenAIClient) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(req.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenAISchema(req.Schema),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelName, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the genai client holds no resources that need releasing
func (c *GenAIClient) Close() error {
	return nil
}

func toGenAISchema(s *schemas.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genAIType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		MinItems:    s.MinItems,
	}
	if s.Items != nil {
		out.Items = toGenAISchema(s.Items)
	}
	if len(s.Properties) > 0 {
		names := s.PropertyNames()
		out.Properties = make(map[string]*genai.Schema, len(names))
		for _, name := range names {
			out.Properties[name] = toGenAISchema(s.Properties[name])
		}
		out.PropertyOrdering = names
	}
	return out
}

func genAIType(t string) genai.Type {
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
