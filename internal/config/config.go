package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/kerigma/internal/insight"
	"github.com/joho/godotenv"
)

const (
	DefaultPort     = "8080"
	DefaultTimezone = "America/Sao_Paulo"
	DefaultAuthor   = "Pr. Carlos"
)

type Config struct {
	Port     string
	LogLevel string
	Location *time.Location
	// DefaultAuthor signs interactions submitted without an author.
	DefaultAuthor    string
	Seed             bool
	InsightRateLimit int
	// AllowedOrigins restricts websocket origins. Empty allows any.
	AllowedOrigins []string
	Insight        insight.Config
}

// Load reads the environment, after applying a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromEnv(), nil
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() *Config {
	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("API_KEY", "")
	}

	return &Config{
		Port:             getEnv("KERIGMA_PORT", DefaultPort),
		LogLevel:         getEnv("KERIGMA_LOG_LEVEL", "info"),
		Location:         loadLocation(getEnv("KERIGMA_TIMEZONE", DefaultTimezone)),
		DefaultAuthor:    getEnv("KERIGMA_DEFAULT_AUTHOR", DefaultAuthor),
		Seed:             getEnvAsBool("KERIGMA_SEED", true),
		InsightRateLimit: getEnvAsInt("KERIGMA_INSIGHT_RATE_LIMIT", 10),
		AllowedOrigins:   getEnvAsList("KERIGMA_ALLOWED_ORIGINS"),
		Insight: insight.Config{
			APIKey:  apiKey,
			Model:   getEnv("GEMINI_MODEL", insight.DefaultModel),
			BaseURL: getEnv("GEMINI_BASE_URL", insight.DefaultBaseURL),
		},
	}
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
