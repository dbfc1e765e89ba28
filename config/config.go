package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

/* Config is loaded once at startup from the environment, with an optional
 * .env file for local development. Environment variables always win
 */

type Config struct {
	Port          string `mapstructure:"PORT"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Webhook signing secrets. The production secret is required; the
	// sandbox secret is optional and falls back to production with a warning
	WebhookSecret        string `mapstructure:"SQUARE_WEBHOOK_SECRET"`
	WebhookSecretSandbox string `mapstructure:"SQUARE_WEBHOOK_SECRET_SANDBOX"`

	// Rate limiting: production is stricter than sandbox
	RateLimitProductionMax  int `mapstructure:"RATE_LIMIT_PRODUCTION_MAX"`
	RateLimitSandboxMax     int `mapstructure:"RATE_LIMIT_SANDBOX_MAX"`
	RateLimitWindowSeconds  int `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`
	ReplayMaxEventAgeMinute int `mapstructure:"REPLAY_MAX_EVENT_AGE_MINUTES"`

	DependenciesFile string `mapstructure:"DEPENDENCIES_FILE"`
}

func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// The .env file is optional; the environment alone is enough
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_PRODUCTION_MAX", 60)
	viper.SetDefault("RATE_LIMIT_SANDBOX_MAX", 120)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("REPLAY_MAX_EVENT_AGE_MINUTES", 60)
	viper.SetDefault("DEPENDENCIES_FILE", "dependencies.yaml")
}

// RateLimitWindow returns the rate limit window as a duration
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// ReplayMaxEventAge returns the replay acceptance window as a duration
func (c *Config) ReplayMaxEventAge() time.Duration {
	return time.Duration(c.ReplayMaxEventAgeMinute) * time.Minute
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	if c.WebhookSecret == "" {
		return fmt.Errorf("SQUARE_WEBHOOK_SECRET is required")
	}
	return nil
}
