// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally without any env setup.
// Missing provider keys never block start-up; the adapters report them per call.
package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the generation service.
type Config struct {
	// HTTP
	Host           string        // HOST (default: "0.0.0.0")
	Port           string        // PORT (default: "8080")
	ReadTimeout    time.Duration // READ_TIMEOUT (default: 15s)
	WriteTimeout   time.Duration // WRITE_TIMEOUT (default: 150s)
	IdleTimeout    time.Duration // IDLE_TIMEOUT (default: 60s)
	RequestTimeout time.Duration // REQUEST_TIMEOUT (default: 120s)
	APIPrefix      string        // API_V1_STR (default: "/api/v1")
	ProjectName    string        // PROJECT_NAME (default: "Image Generation API")
	StaticDir      string        // STATIC_DIR (default: "static")

	// Providers
	OpenAIAPIKey  string // OPENAI_API_KEY
	OpenAIBaseURL string // OPENAI_BASE_URL (default: "https://api.openai.com/v1")
	GeminiAPIKey  string // GEMINI_API_KEY, falling back to GOOGLE_API_KEY
	GeminiBaseURL string // GEMINI_BASE_URL (default: SDK endpoint)
	ModelsFile    string // MODELS_FILE (default: embedded model table)

	// Logging
	LogLevel  string // LOG_LEVEL (default: "info")
	LogFormat string // LOG_FORMAT (default: "json")
}

const (
	envKeyHost           = "HOST"
	envKeyPort           = "PORT"
	envKeyReadTimeout    = "READ_TIMEOUT"
	envKeyWriteTimeout   = "WRITE_TIMEOUT"
	envKeyIdleTimeout    = "IDLE_TIMEOUT"
	envKeyRequestTimeout = "REQUEST_TIMEOUT"
	envKeyAPIPrefix      = "API_V1_STR"
	envKeyProjectName    = "PROJECT_NAME"
	envKeyStaticDir      = "STATIC_DIR"
	envKeyOpenAIAPIKey   = "OPENAI_API_KEY"
	envKeyOpenAIBaseURL  = "OPENAI_BASE_URL"
	envKeyGeminiAPIKey   = "GEMINI_API_KEY"
	envKeyGoogleAPIKey   = "GOOGLE_API_KEY"
	envKeyGeminiBaseURL  = "GEMINI_BASE_URL"
	envKeyModelsFile     = "MODELS_FILE"
	envKeyLogLevel       = "LOG_LEVEL"
	envKeyLogFormat      = "LOG_FORMAT"
)

const (
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 150 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	defaultRequestTimeout = 120 * time.Second
)

// Load reads configuration from environment variables, applying defaults for missing values.
func Load() Config {
	return Config{
		Host:           envOr(envKeyHost, "0.0.0.0"),
		Port:           envOr(envKeyPort, "8080"),
		ReadTimeout:    durationOr(envKeyReadTimeout, defaultReadTimeout),
		WriteTimeout:   durationOr(envKeyWriteTimeout, defaultWriteTimeout),
		IdleTimeout:    durationOr(envKeyIdleTimeout, defaultIdleTimeout),
		RequestTimeout: durationOr(envKeyRequestTimeout, defaultRequestTimeout),
		APIPrefix:      envOr(envKeyAPIPrefix, "/api/v1"),
		ProjectName:    envOr(envKeyProjectName, "Image Generation API"),
		StaticDir:      envOr(envKeyStaticDir, "static"),
		OpenAIAPIKey:   os.Getenv(envKeyOpenAIAPIKey),
		OpenAIBaseURL:  envOr(envKeyOpenAIBaseURL, "https://api.openai.com/v1"),
		GeminiAPIKey:   envOr(envKeyGeminiAPIKey, os.Getenv(envKeyGoogleAPIKey)),
		GeminiBaseURL:  os.Getenv(envKeyGeminiBaseURL),
		ModelsFile:     os.Getenv(envKeyModelsFile),
		LogLevel:       envOr(envKeyLogLevel, "info"),
		LogFormat:      envOr(envKeyLogFormat, "json"),
	}
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// LoadDotEnv populates the process environment from .env files. Variables
// already set win over file values. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOr parses key as a Go duration. Unset, invalid or non-positive
// values yield fallback.
func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
