package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"triage_server/core/domain"
	"triage_server/pkg/apperr"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/"

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Providers
	GeminiAPIKey string
	OpenAIAPIKey string

	// Models, in fallback order
	ModelsFile string
	Models     []domain.ModelEndpoint

	// Remote classification
	LLMTimeoutSec       int
	LLMAttemptsPerModel int

	// Text handling
	TextMaxChars int
	TextMinChars int
	PreviewChars int

	// HTTP
	BodyLimitMB int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("models_file", "")
	v.SetDefault("llm_timeout_sec", 30)
	v.SetDefault("llm_attempts_per_model", 3)
	v.SetDefault("text_max_chars", 50000)
	v.SetDefault("text_min_chars", 20)
	v.SetDefault("preview_chars", 2000)
	v.SetDefault("body_limit_mb", 15)
}

// Load reads configuration from the environment and, when configFile is set,
// from that file. Environment variables win over file values.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        v.GetString("port"),
		Environment: v.GetString("env"),
		LogLevel:    v.GetString("log_level"),

		GeminiAPIKey: v.GetString("gemini_api_key"),
		OpenAIAPIKey: v.GetString("openai_api_key"),

		ModelsFile: v.GetString("models_file"),

		LLMTimeoutSec:       positive(v.GetInt("llm_timeout_sec"), 30),
		LLMAttemptsPerModel: positive(v.GetInt("llm_attempts_per_model"), 3),

		TextMaxChars: positive(v.GetInt("text_max_chars"), 50000),
		TextMinChars: positive(v.GetInt("text_min_chars"), 20),
		PreviewChars: positive(v.GetInt("preview_chars"), 2000),

		BodyLimitMB: positive(v.GetInt("body_limit_mb"), 15),
	}

	if cfg.ModelsFile == "" {
		cfg.Models = DefaultModels()
		return cfg, nil
	}

	models, err := LoadModels(cfg.ModelsFile)
	if err != nil {
		return nil, err
	}
	cfg.Models = models
	return cfg, nil
}

func positive(value, defaultValue int) int {
	if value > 0 {
		return value
	}
	return defaultValue
}

// DefaultModels is the built-in fallback list.
func DefaultModels() []domain.ModelEndpoint {
	return []domain.ModelEndpoint{
		{
			Name:      "gemini-2.5-flash",
			URL:       geminiBaseURL + "gemini-2.5-flash:generateContent",
			MaxTokens: 50,
			Provider:  domain.ProviderGemini,
		},
		{
			Name:      "gemini-2.0-flash",
			URL:       geminiBaseURL + "gemini-2.0-flash:generateContent",
			MaxTokens: 100,
			Provider:  domain.ProviderGemini,
		},
	}
}

type modelsFile struct {
	Models []domain.ModelEndpoint `yaml:"models"`
}

// LoadModels reads an ordered model list from a YAML file.
func LoadModels(path string) ([]domain.ModelEndpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}

	var f modelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse models file %s: %w", path, err)
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("models file %s has no models", path)
	}

	for i, m := range f.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("models file %s: entry %d has no name", path, i)
		}
		switch m.ProviderName() {
		case domain.ProviderGemini:
			if m.URL == "" {
				return nil, fmt.Errorf("models file %s: model %s has no url", path, m.Name)
			}
		case domain.ProviderOpenAI:
		default:
			return nil, fmt.Errorf("models file %s: model %s has unknown provider %q", path, m.Name, m.Provider)
		}
		f.Models[i].Provider = m.ProviderName()
	}
	return f.Models, nil
}

// MissingCredentials reports the first provider key needed by the model list but not set.
func (c *Config) MissingCredentials() error {
	for _, m := range c.Models {
		switch m.ProviderName() {
		case domain.ProviderGemini:
			if c.GeminiAPIKey == "" {
				return apperr.MissingCredential("GEMINI_API_KEY")
			}
		case domain.ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				return apperr.MissingCredential("OPENAI_API_KEY")
			}
		}
	}
	return nil
}

// LLMTimeout is the per-attempt timeout for remote calls.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSec) * time.Second
}

// BodyLimit is the maximum request body size in bytes.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
