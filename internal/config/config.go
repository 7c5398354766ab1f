package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTRefreshSecret       string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	ExtractorURL           string
	ExtractionTimeout      time.Duration
	GradingTimeout         time.Duration
	PromptCharBudget       int
	AIProvider             string
	AIModel                string
	OpenAIAPIKey           string
	AnthropicAPIKey        string
	NotificationChannel    string
	SSEKeepAlive           time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ATRIUM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Atrium API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "atrium/submissions")
	v.SetDefault("extraction.timeout", "30s")
	v.SetDefault("grading.timeout", "60s")
	v.SetDefault("grading.prompt_chars", 12000)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("notifications.channel", "atrium")
	v.SetDefault("sse.keepalive", "30s")

	extractionTimeout, err := time.ParseDuration(v.GetString("extraction.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid extraction timeout: %w", err)
	}

	gradingTimeout, err := time.ParseDuration(v.GetString("grading.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading timeout: %w", err)
	}

	keepAlive, err := time.ParseDuration(v.GetString("sse.keepalive"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid sse keepalive: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		ExtractorURL:           v.GetString("extractor.url"),
		ExtractionTimeout:      extractionTimeout,
		GradingTimeout:         gradingTimeout,
		PromptCharBudget:       v.GetInt("grading.prompt_chars"),
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		AIModel:                v.GetString("ai.model"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AnthropicAPIKey:        v.GetString("anthropic_api_key"),
		NotificationChannel:    v.GetString("notifications.channel"),
		SSEKeepAlive:           keepAlive,
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	return cfg, nil
}
