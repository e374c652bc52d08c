package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"user_id": "550e8400-e29b-41d4-a716-446655440000",
		"database_url": "postgres://localhost:5432/applytrack",
		"gemini_model": "gemini-1.5-pro",
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", cfg.UserID)
	assert.Equal(t, "postgres://localhost:5432/applytrack", cfg.DatabaseURL)
	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
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
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env:5432/applytrack")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg := &Config{DatabaseURL: "postgres://file:5432/applytrack"}
	cfg.ApplyEnv()

	// File values win over environment values
	assert.Equal(t, "postgres://file:5432/applytrack", cfg.DatabaseURL)
	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost:5432/applytrack",
	}

	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Config{
		DatabaseURL:  "postgres://default:5432/applytrack",
		GeminiAPIKey: "default-key",
		GeminiModel:  "gemini-1.5-flash",
	}

	partial := Config{
		UserID:      "custom-user-id",
		GeminiModel: "gemini-1.5-pro",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, "custom-user-id", merged.UserID)
	assert.Equal(t, "gemini-1.5-pro", merged.GeminiModel)

	// Default values should fill in empty fields
	assert.Equal(t, "postgres://default:5432/applytrack", merged.DatabaseURL)
	assert.Equal(t, "default-key", merged.GeminiAPIKey)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{
		UserID: "test-user",
	}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "test-user", merged.UserID)
}
