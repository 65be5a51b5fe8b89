// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// APIKey guards every API route via the X-API-Key header.
	APIKey string `mapstructure:"API_KEY"`

	// Scraping provider settings.
	ApifyToken        string        `mapstructure:"APIFY_TOKEN"`
	ApifyPollInterval time.Duration `mapstructure:"APIFY_POLL_INTERVAL"`
	ApifyPollTimeout  time.Duration `mapstructure:"APIFY_POLL_TIMEOUT"`

	// Per-platform scrape volumes.
	TikTokResultsPerPage  int `mapstructure:"TIKTOK_RESULTS_PER_PAGE"`
	InstagramResultsLimit int `mapstructure:"INSTAGRAM_RESULTS_LIMIT"`

	// Recommendation generation. GroqAPIKey may be empty; the feature is
	// reported unavailable instead of blocking startup.
	GroqAPIKey string `mapstructure:"GROQ_API_KEY"`
	GroqModel  string `mapstructure:"GROQ_MODEL"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// Set default values for development
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "creatorpulse")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("API_KEY", "dev-api-key-change-in-production")
	viper.SetDefault("APIFY_TOKEN", "")
	viper.SetDefault("APIFY_POLL_INTERVAL", "2s")
	viper.SetDefault("APIFY_POLL_TIMEOUT", "5m")
	viper.SetDefault("TIKTOK_RESULTS_PER_PAGE", 50)
	viper.SetDefault("INSTAGRAM_RESULTS_LIMIT", 200)
	viper.SetDefault("GROQ_API_KEY", "")
	viper.SetDefault("GROQ_MODEL", "llama-3.3-70b-versatile")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.APIKey == "" {
		return errors.New("API_KEY is required")
	}
	if c.ApifyToken == "" {
		return errors.New("APIFY_TOKEN is required")
	}
	if c.ApifyPollInterval <= 0 {
		return errors.New("APIFY_POLL_INTERVAL must be positive")
	}
	if c.ApifyPollTimeout <= 0 {
		return errors.New("APIFY_POLL_TIMEOUT must be positive")
	}
	if c.TikTokResultsPerPage <= 0 || c.InstagramResultsLimit <= 0 {
		return errors.New("scrape volume limits must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.APIKey == "dev-api-key-change-in-production" {
			return errors.New("API_KEY must be changed from the default value in production")
		}
		if len(c.APIKey) < 32 {
			return errors.New("API_KEY must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else {
		// Development/Test warnings
		if len(c.APIKey) < 32 {
			log.Println("WARNING: API_KEY is shorter than 32 characters. Consider using a stronger key for production.")
		}
	}

	return nil
}

// IsProduction reports whether the app runs with production strictness.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
