package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/skillbridge/internal/llm"
	"github.com/jonathan/skillbridge/internal/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"provider": "gemini",
		"model": "gemini-2.5-pro",
		"temperature": 0.1,
		"backend": "postgres",
		"database_url": "postgres://localhost/skillbridge",
		"port": 9090,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.1, *cfg.Temperature, 1e-9)
	assert.Equal(t, "postgres", cfg.Backend)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
backend: s3
max_storage_bytes: 1048576
s3:
  bucket: reports
  endpoint: http://localhost:9000
  path_style: true
base_url: https://skillbridge.example.com/
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Backend)
	assert.Equal(t, int64(1048576), cfg.MaxStorageBytes)
	assert.Equal(t, "reports", cfg.S3.Bucket)
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
	assert.True(t, cfg.S3.PathStyle)
	assert.Equal(t, "https://skillbridge.example.com/", cfg.BaseURL)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "port: [not an int")

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GEMINI_API_KEY":            "key-123",
		"DATABASE_URL":              "postgres://db/skillbridge",
		"SKILLBRIDGE_BACKEND":       "postgres",
		"SKILLBRIDGE_PORT":          "9000",
		"SKILLBRIDGE_S3_ACCESS_KEY": "AKIA",
		"SKILLBRIDGE_S3_SECRET_KEY": "secret",
	}
	cfg := Config{Backend: "sqlite", Port: 8080}

	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "key-123", cfg.APIKey)
	assert.Equal(t, "postgres://db/skillbridge", cfg.DatabaseURL)
	assert.Equal(t, "postgres", cfg.Backend)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "AKIA", cfg.S3.AccessKey)
	assert.Equal(t, "secret", cfg.S3.SecretKey)
}

func TestApplyEnv_UnsetLeavesValues(t *testing.T) {
	cfg := Config{APIKey: "from-file", Port: 1234}
	require.NoError(t, cfg.ApplyEnv(func(string) string { return "" }))
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, 1234, cfg.Port)
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	cfg := Config{}
	err := cfg.ApplyEnv(func(k string) string {
		if k == "SKILLBRIDGE_PORT" {
			return "eighty"
		}
		return ""
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SKILLBRIDGE_PORT")
}

func TestValidate(t *testing.T) {
	neg := -0.5
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty config", cfg: Config{}},
		{name: "defaults", cfg: Defaults()},
		{name: "unknown provider", cfg: Config{Provider: "openai"}, wantErr: "unknown provider"},
		{name: "unknown backend", cfg: Config{Backend: "redis"}, wantErr: "unknown backend"},
		{name: "negative temperature", cfg: Config{Temperature: &neg}, wantErr: "temperature"},
		{name: "negative resume limit", cfg: Config{MaxResumeChars: -1}, wantErr: "max_resume_chars"},
		{name: "negative quota", cfg: Config{MaxStorageBytes: -1}, wantErr: "max_storage_bytes"},
		{name: "port out of range", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "postgres without url", cfg: Config{Backend: "postgres"}, wantErr: "database_url"},
		{name: "s3 without bucket", cfg: Config{Backend: "s3"}, wantErr: "s3.bucket"},
		{name: "s3 with bucket", cfg: Config{Backend: "s3", S3: reports.S3Config{Bucket: "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Backend: "memory", Port: 9000}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "memory", merged.Backend)
	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "gemini", merged.Provider)
	assert.Equal(t, DefaultBaseURL, merged.BaseURL)
	assert.Equal(t, DefaultMaxResumeChars, merged.MaxResumeChars)
	assert.Equal(t, DefaultMaxConcurrentAnalyses, merged.MaxConcurrentAnalyses)
	require.NotNil(t, merged.Temperature)
	assert.InDelta(t, DefaultTemperature, *merged.Temperature, 1e-9)

	// Original is not modified
	assert.Empty(t, cfg.Provider)
}

func TestMergeWithDefaults_ZeroTemperatureKept(t *testing.T) {
	zero := 0.0
	cfg := Config{Temperature: &zero}
	merged := cfg.MergeWithDefaults(Defaults())
	assert.Equal(t, float32(0), merged.TemperatureValue())
}

func TestStoreConfig(t *testing.T) {
	cfg := Config{Backend: "sqlite", SQLitePath: "/tmp/r.db", MaxStorageBytes: 10}
	sc := cfg.StoreConfig()
	assert.Equal(t, reports.BackendSQLite, sc.Backend)
	assert.Equal(t, "/tmp/r.db", sc.SQLitePath)
	assert.Equal(t, int64(10), sc.MaxBytes)
}

func TestLLMConfig(t *testing.T) {
	cfg := Config{Model: "gemini-2.5-pro"}
	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderGemini, lc.Provider)
	assert.Equal(t, "gemini-2.5-pro", lc.GetModel(llm.TierStandard))

	cfg = Config{Provider: "vertex", Project: "p", Location: "us-central1"}
	lc = cfg.LLMConfig()
	assert.Equal(t, llm.ProviderVertex, lc.Provider)
	assert.Equal(t, "p", lc.Project)
	assert.Equal(t, "gemini-2.5-flash", lc.GetModel(llm.TierStandard))
}

func TestTemperatureValue_Default(t *testing.T) {
	assert.Equal(t, float32(DefaultTemperature), (&Config{}).TemperatureValue())
}
