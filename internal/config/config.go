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
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	JWTSecret          string
	SimilarityProvider string
	SimilarityEndpoint string
	SimilarityToken    string
	SimilarityTimeout  time.Duration
	ScoringConcurrency int
	SessionTTL         time.Duration
	OpenAIAPIKey       string
	OpenAIModel        string
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
	v.SetEnvPrefix("SAGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SAGE API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("similarity.provider", "huggingface")
	v.SetDefault("similarity.timeout", "30s")
	v.SetDefault("scoring.concurrency", 4)
	v.SetDefault("session.ttl", "30m")

	timeout, err := time.ParseDuration(v.GetString("similarity.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid similarity timeout: %w", err)
	}

	sessionTTL, err := time.ParseDuration(v.GetString("session.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		SimilarityProvider: strings.ToLower(v.GetString("similarity.provider")),
		SimilarityEndpoint: v.GetString("similarity.endpoint"),
		SimilarityToken:    v.GetString("similarity.token"),
		SimilarityTimeout:  timeout,
		ScoringConcurrency: v.GetInt("scoring.concurrency"),
		SessionTTL:         sessionTTL,
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai_model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ScoringConcurrency <= 0 {
		cfg.ScoringConcurrency = 4
	}

	return cfg, nil
}
