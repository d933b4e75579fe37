package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage_server/core/domain"
	"triage_server/pkg/apperr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 3, cfg.LLMAttemptsPerModel)
	assert.Equal(t, 50000, cfg.TextMaxChars)
	assert.Equal(t, 20, cfg.TextMinChars)
	assert.Equal(t, 2000, cfg.PreviewChars)
	assert.Equal(t, 15*1024*1024, cfg.BodyLimit())
	assert.Equal(t, DefaultModels(), cfg.Models)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LLM_TIMEOUT_SEC", "5")
	t.Setenv("TEXT_MIN_CHARS", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 20, cfg.TextMinChars, "unparseable values fall back to defaults")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeFile(t, "triage.yaml", "port: \"7070\"\npreview_chars: 500\n")
	t.Setenv("PREVIEW_CHARS", "900")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 900, cfg.PreviewChars, "environment wins over file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadModels(t *testing.T) {
	path := writeFile(t, "models.yaml", `
models:
  - name: gemini-2.5-flash
    url: https://example.test/models/gemini-2.5-flash:generateContent
    max_tokens: 50
  - name: gpt-4o-mini
    url: https://api.openai.com/v1
    max_tokens: 100
    provider: openai
`)
	t.Setenv("MODELS_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)

	require.Len(t, cfg.Models, 2)
	assert.Equal(t, domain.ModelEndpoint{
		Name:      "gemini-2.5-flash",
		URL:       "https://example.test/models/gemini-2.5-flash:generateContent",
		MaxTokens: 50,
		Provider:  domain.ProviderGemini,
	}, cfg.Models[0])
	assert.Equal(t, domain.ProviderOpenAI, cfg.Models[1].Provider)
}

func TestLoadModels_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty list", "models: []\n"},
		{"bad yaml", "models: [\n"},
		{"missing name", "models:\n  - url: http://x\n"},
		{"gemini without url", "models:\n  - name: g\n"},
		{"unknown provider", "models:\n  - name: c\n    url: http://x\n    provider: claude\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadModels(writeFile(t, "models.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestMissingCredentials(t *testing.T) {
	openAI := domain.ModelEndpoint{Name: "gpt", Provider: domain.ProviderOpenAI}

	tests := []struct {
		name    string
		cfg     Config
		wantMsg string
	}{
		{"gemini key missing", Config{Models: DefaultModels()}, "GEMINI_API_KEY não configurada"},
		{"gemini key set", Config{Models: DefaultModels(), GeminiAPIKey: "k"}, ""},
		{"openai key missing", Config{Models: append(DefaultModels(), openAI), GeminiAPIKey: "k"}, "OPENAI_API_KEY não configurada"},
		{"all keys set", Config{Models: append(DefaultModels(), openAI), GeminiAPIKey: "k", OpenAIAPIKey: "o"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.MissingCredentials()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			appErr := apperr.AsAppError(err)
			assert.Equal(t, apperr.CodeConfigError, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.Equal(t, 500, appErr.Status)
		})
	}
}
