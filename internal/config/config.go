// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/skillbridge/internal/llm"
	"github.com/jonathan/skillbridge/internal/reports"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration. It is loaded from a JSON or YAML file,
// then overridden by environment variables and finally by CLI flags.
// All fields are optional; missing values use defaults.
type Config struct {
	// Model
	APIKey         string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`                   // Gemini API key
	Provider       string   `json:"provider,omitempty" yaml:"provider,omitempty"`                 // "gemini" or "vertex"
	Project        string   `json:"project,omitempty" yaml:"project,omitempty"`                   // Vertex AI project
	Location       string   `json:"location,omitempty" yaml:"location,omitempty"`                 // Vertex AI region
	Model          string   `json:"model,omitempty" yaml:"model,omitempty"`                       // Overrides the standard-tier model
	Temperature    *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`           // Sampling temperature (0.0-2.0)
	MaxResumeChars int      `json:"max_resume_chars,omitempty" yaml:"max_resume_chars,omitempty"` // Resume truncation limit

	// Report storage
	Backend         string           `json:"backend,omitempty" yaml:"backend,omitempty"`                     // memory, sqlite, postgres or s3
	MaxStorageBytes int64            `json:"max_storage_bytes,omitempty" yaml:"max_storage_bytes,omitempty"` // Quota for stored reports, 0 is unlimited
	SQLitePath      string           `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`             // Local report database
	DatabaseURL     string           `json:"database_url,omitempty" yaml:"database_url,omitempty"`           // PostgreSQL connection URL
	S3              reports.S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`

	// Server
	Port                  int    `json:"port,omitempty" yaml:"port,omitempty"`
	BaseURL               string `json:"base_url,omitempty" yaml:"base_url,omitempty"` // Address share links point at
	AllowedOrigin         string `json:"allowed_origin,omitempty" yaml:"allowed_origin,omitempty"`
	MaxConcurrentAnalyses int    `json:"max_concurrent_analyses,omitempty" yaml:"max_concurrent_analyses,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Debug logging
}

// Default values
const (
	DefaultPort                  = 8080
	DefaultBaseURL               = "http://localhost:8080/"
	DefaultAllowedOrigin         = "*"
	DefaultMaxConcurrentAnalyses = 4
	DefaultTemperature           = 0.2
	DefaultMaxResumeChars        = 20000
)

// Defaults returns the built-in configuration
func Defaults() Config {
	temperature := DefaultTemperature
	return Config{
		Provider:              string(llm.ProviderGemini),
		Temperature:           &temperature,
		MaxResumeChars:        DefaultMaxResumeChars,
		Backend:               string(reports.BackendSQLite),
		SQLitePath:            DefaultSQLitePath(),
		Port:                  DefaultPort,
		BaseURL:               DefaultBaseURL,
		AllowedOrigin:         DefaultAllowedOrigin,
		MaxConcurrentAnalyses: DefaultMaxConcurrentAnalyses,
	}
}

// DefaultSQLitePath is the per-user report database location
func DefaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "skillbridge", "reports.db")
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.APIKey, "GEMINI_API_KEY")
	setString(&c.Provider, "SKILLBRIDGE_PROVIDER")
	setString(&c.Project, "GOOGLE_CLOUD_PROJECT")
	setString(&c.Location, "GOOGLE_CLOUD_LOCATION")
	setString(&c.Model, "SKILLBRIDGE_MODEL")
	setString(&c.Backend, "SKILLBRIDGE_BACKEND")
	setString(&c.SQLitePath, "SKILLBRIDGE_SQLITE_PATH")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.BaseURL, "SKILLBRIDGE_BASE_URL")
	setString(&c.S3.Bucket, "SKILLBRIDGE_S3_BUCKET")
	setString(&c.S3.Prefix, "SKILLBRIDGE_S3_PREFIX")
	setString(&c.S3.Region, "SKILLBRIDGE_S3_REGION")
	setString(&c.S3.Endpoint, "SKILLBRIDGE_S3_ENDPOINT")
	setString(&c.S3.AccessKey, "SKILLBRIDGE_S3_ACCESS_KEY")
	setString(&c.S3.SecretKey, "SKILLBRIDGE_S3_SECRET_KEY")

	if v := getenv("SKILLBRIDGE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: SKILLBRIDGE_PORT must be an integer: %w", err)
		}
		c.Port = port
	}
	if v := getenv("SKILLBRIDGE_MAX_STORAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config error: SKILLBRIDGE_MAX_STORAGE_BYTES must be an integer: %w", err)
		}
		c.MaxStorageBytes = n
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for credentials since those are only needed by
// commands that call the model.
func (c *Config) Validate() error {
	if c.Provider != "" && c.Provider != string(llm.ProviderGemini) && c.Provider != string(llm.ProviderVertex) {
		return fmt.Errorf("config error: unknown provider %q", c.Provider)
	}
	if c.Backend != "" && !reports.Backend(c.Backend).IsValid() {
		return fmt.Errorf("config error: unknown backend %q", c.Backend)
	}

	// Validate numeric ranges
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("config error: 'temperature' must be between 0 and 2")
	}
	if c.MaxResumeChars < 0 {
		return fmt.Errorf("config error: 'max_resume_chars' must be non-negative")
	}
	if c.MaxStorageBytes < 0 {
		return fmt.Errorf("config error: 'max_storage_bytes' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.MaxConcurrentAnalyses < 0 {
		return fmt.Errorf("config error: 'max_concurrent_analyses' must be non-negative")
	}

	// Backend requirements
	switch reports.Backend(c.Backend) {
	case reports.BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres backend")
		}
	case reports.BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("config error: 's3.bucket' is required for the s3 backend")
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	for _, f := range []struct{ dst, def *string }{
		{&result.APIKey, &defaults.APIKey},
		{&result.Provider, &defaults.Provider},
		{&result.Project, &defaults.Project},
		{&result.Location, &defaults.Location},
		{&result.Model, &defaults.Model},
		{&result.Backend, &defaults.Backend},
		{&result.SQLitePath, &defaults.SQLitePath},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.BaseURL, &defaults.BaseURL},
		{&result.AllowedOrigin, &defaults.AllowedOrigin},
	} {
		if *f.dst == "" {
			*f.dst = *f.def
		}
	}
	if result.S3.Bucket == "" {
		result.S3 = defaults.S3
	}

	// Numeric fields: use default if zero
	if result.Temperature == nil {
		result.Temperature = defaults.Temperature
	}
	if result.MaxResumeChars == 0 {
		result.MaxResumeChars = defaults.MaxResumeChars
	}
	if result.MaxStorageBytes == 0 {
		result.MaxStorageBytes = defaults.MaxStorageBytes
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxConcurrentAnalyses == 0 {
		result.MaxConcurrentAnalyses = defaults.MaxConcurrentAnalyses
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// StoreConfig returns the report store settings
func (c *Config) StoreConfig() reports.Config {
	return reports.Config{
		Backend:     reports.Backend(c.Backend),
		MaxBytes:    c.MaxStorageBytes,
		SQLitePath:  c.SQLitePath,
		DatabaseURL: c.DatabaseURL,
		S3:          c.S3,
	}
}

// LLMConfig returns the model client settings
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	if c.Model != "" {
		cfg = cfg.WithModel(llm.TierStandard, c.Model)
	}
	if c.Provider == string(llm.ProviderVertex) {
		cfg = cfg.WithVertex(c.Project, c.Location)
	}
	return cfg
}

// TemperatureValue returns the configured temperature or the default
func (c *Config) TemperatureValue() float32 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return float32(*c.Temperature)
}
