// Package llm provides centralized LLM configuration and client abstractions.
// This package enables easy switching between model tiers and providers.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: classification, extraction, basic summarization
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: structured gap analysis
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini API, authenticated with an API key
	ProviderGemini Provider = "gemini"
	// ProviderVertex is Gemini on Vertex AI through the unified genai SDK,
	// authenticated with application default credentials
	ProviderVertex Provider = "vertex"
)

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string

	// Vertex AI only
	Project  string
	Location string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := c.clone()
	newConfig.Models[tier] = model
	return newConfig
}

// WithVertex returns a new Config that targets Vertex AI in the given project and location
func (c *Config) WithVertex(project, location string) *Config {
	newConfig := c.clone()
	newConfig.Provider = ProviderVertex
	newConfig.Project = project
	newConfig.Location = location
	return newConfig
}

func (c *Config) clone() *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)),
		Project:  c.Project,
		Location: c.Location,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	return newConfig
}
