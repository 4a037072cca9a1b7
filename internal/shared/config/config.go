package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.5-flash"
)

// ErrMissingCredential is returned when the configured provider has no API key.
var ErrMissingCredential = errors.New("missing llm credential")

// Config holds application configuration.
type Config struct {
	Port            string   `validate:"required"`
	Env             string   `validate:"oneof=dev local staging production"`
	CORSAllowOrigin []string
	LLMProvider     string        `validate:"oneof=openai gemini"`
	LLMModel        string        `validate:"required"`
	LLMTimeout      time.Duration `validate:"gt=0"`
	OpenAIAPIKey    string
	GeminiAPIKey    string
	MaxUploadMB     int     `validate:"gt=0"`
	MinTextLength   int     `validate:"gte=0"`
	RateLimitRPS    float64 `validate:"gte=0"`
	RateLimitBurst  int     `validate:"gte=0"`
	DatabaseURL     string
	ArchiveStore    string `validate:"oneof=none local s3 gcs"`
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string `validate:"required_if=ArchiveStore s3"`
	S3Prefix        string
	SSEKMSKeyID     string
	GCSBucket       string `validate:"required_if=ArchiveStore gcs"`
	GCSPrefix       string
	LogFormat       string `validate:"oneof=json console"`
	LogLevel        string `validate:"oneof=debug info warn error"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := normalizeEnv(v.GetString("ENV"))
	provider := normalizeProvider(v.GetString("LLM_PROVIDER"))
	dbURL := v.GetString("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL not set in production; run history is kept in memory")
	}

	return Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		LLMProvider:     provider,
		LLMModel:        modelOrDefault(provider, v.GetString("LLM_MODEL")),
		LLMTimeout:      time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		OpenAIAPIKey:    strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		GeminiAPIKey:    strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		MaxUploadMB:     v.GetInt("MAX_UPLOAD_MB"),
		MinTextLength:   v.GetInt("MIN_TEXT_LENGTH"),
		RateLimitRPS:    v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:  v.GetInt("RATE_LIMIT_BURST"),
		DatabaseURL:     dbURL,
		ArchiveStore:    normalizeStoreType(v.GetString("ARCHIVE_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),
		GCSBucket:       v.GetString("GCS_BUCKET"),
		GCSPrefix:       v.GetString("GCS_PREFIX"),
		LogFormat:       strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 120)
	v.SetDefault("MAX_UPLOAD_MB", 5)
	v.SetDefault("MIN_TEXT_LENGTH", 100)
	v.SetDefault("RATE_LIMIT_RPS", 0.5)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("ARCHIVE_STORE", "none")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")
}

// Validate checks ranges and enumerations of the loaded configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// APIKey returns the credential of the configured provider.
func (c Config) APIKey() string {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// CredentialEnv names the environment variable that supplies APIKey.
func (c Config) CredentialEnv() string {
	if c.LLMProvider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// RequireCredential fails when the provider credential is absent.
func (c Config) RequireCredential() error {
	if strings.TrimSpace(c.APIKey()) == "" {
		return fmt.Errorf("%w: %s not set", ErrMissingCredential, c.CredentialEnv())
	}
	return nil
}

// MaxUploadBytes is the Input Gate limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func modelOrDefault(provider, model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	switch provider {
	case ProviderGemini:
		return defaultGeminiModel
	default:
		return defaultOpenAIModel
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local", "s3", "gcs":
		return strings.ToLower(strings.TrimSpace(raw))
	case "", "none", "off":
		return "none"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}
