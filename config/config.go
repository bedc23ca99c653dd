// Package config handles application configuration from environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when present.
const DefaultEnvFile = ".env"

// Config holds the application configuration.
type Config struct {
	DatabasePath  string
	YouTubeAPIKey string
	Query         string
	LogLevel      string
	Listen        string
	CORSOrigins   string
	PageSize      int
}

// Load reads DefaultEnvFile if it exists, then the environment.
func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile reads envFile if it exists, then the environment. Variables
// already set in the environment win over the file.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	pageSize := 24
	if raw := strings.TrimSpace(os.Getenv("VIDCAT_PAGE_SIZE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid VIDCAT_PAGE_SIZE %q: must be a positive integer", raw)
		}
		pageSize = n
	}

	return &Config{
		DatabasePath:  os.Getenv("VIDCAT_DB"),
		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),
		Query:         getEnv("VIDCAT_QUERY", "disc golf clinic"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Listen:        getEnv("VIDCAT_LISTEN", ":8080"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
		PageSize:      pageSize,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
