package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Directory search backend
	SearchBaseURL string
	SearchTimeout time.Duration

	// Intent parsing provider selection: "gemini" or "bedrock"
	IntentProvider string
	GeminiAPIKey   string
	GeminiModelID  string
	AWSRegion      string
	BedrockModelID string

	// Compose backend (OpenAI-compatible)
	ComposeAPIKey  string
	ComposeModelID string

	// Privacy endpoints
	DirectURL     string
	CDNFrontURL   string
	ReflectorURL  string
	ReflectorPath string
	TorSocksAddr  string
	ProbeURL      string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SearchBaseURL: getEnv("SEARCH_BASE_URL", ""),
		SearchTimeout: getEnvAsDuration("SEARCH_TIMEOUT", 5*time.Second),

		IntentProvider: strings.ToLower(strings.TrimSpace(getEnv("INTENT_PROVIDER", "gemini"))),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),

		ComposeAPIKey:  getEnv("COMPOSE_API_KEY", ""),
		ComposeModelID: getEnv("COMPOSE_MODEL_ID", "gpt-4o-mini"),

		DirectURL:     getEnv("DIRECT_URL", ""),
		CDNFrontURL:   getEnv("CDN_FRONT_URL", ""),
		ReflectorURL:  getEnv("REFLECTOR_URL", ""),
		ReflectorPath: getEnv("REFLECTOR_PATH", "/v1/relay"),
		TorSocksAddr:  getEnv("TOR_SOCKS_ADDR", ""),
		ProbeURL:      getEnv("PROBE_URL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
