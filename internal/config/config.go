// Package config loads application settings from environment variables and
// optional .env files via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	Env            string
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	RedisURL       string
	JWTSecret      string
	AllowedOrigins string
	MediaDir       string
	PageSize       int
	HomeCacheTTL   int // seconds
}

// LoadConfig reads configuration from environment variables, falling back to
// a .env file when present.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		// .env is optional; everything can come from the environment
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !strings.Contains(err.Error(), "no such file") {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "plume")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_URL", "redis://localhost:6379")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("MEDIA_DIR", "media")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("HOME_CACHE_TTL", 20)

	cfg := &Config{
		Port:           v.GetString("PORT"),
		Env:            v.GetString("APP_ENV"),
		DBDriver:       v.GetString("DB_DRIVER"),
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetString("DB_PORT"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBName:         v.GetString("DB_NAME"),
		DBSSLMode:      v.GetString("DB_SSLMODE"),
		RedisURL:       v.GetString("REDIS_URL"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
		MediaDir:       v.GetString("MEDIA_DIR"),
		PageSize:       v.GetInt("PAGE_SIZE"),
		HomeCacheTTL:   v.GetInt("HOME_CACHE_TTL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that production deployments do not run with development
// defaults.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.HomeCacheTTL < 0 {
		return fmt.Errorf("HOME_CACHE_TTL must not be negative, got %d", c.HomeCacheTTL)
	}
	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == "dev-secret-change-me" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.DBPassword == "postgres" {
			return fmt.Errorf("DB_PASSWORD must not use the default value in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
