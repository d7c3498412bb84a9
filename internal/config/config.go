// Package config provides configuration for the relay backend.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// ModeMock selects the offline LLM client.
const ModeMock = "MOCK"

// ProviderConfig describes one upstream chat-completion provider.
type ProviderConfig struct {
	Name         string
	BaseURL      string
	APIKey       string
	DefaultModel string
	// Headers are sent with every request to this provider.
	Headers map[string]string
}

// Config holds the relay configuration. It is built once at startup.
type Config struct {
	// Server settings
	HTTPPort int

	// Document store
	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	SQLiteDSN     string

	// Session cache
	RedisURI        string
	SessionCacheTTL time.Duration

	// LLM gateway
	Groq         ProviderConfig
	OpenRouter   ProviderConfig
	DefaultModel string
	LLMTimeout   time.Duration
	LLMRateLimit float64
	PromptPreset string
	Mode         string

	// Chat
	ChatContextWindow int
	ChatSystemPrompt  string

	// Speech-to-text
	STTBaseURL string
	STTAPIKey  string
	STTModel   string
	STTTimeout time.Duration

	// Policy
	PolicyFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// DefaultChatSystemPrompt is the persona used by multi-turn chat.
const DefaultChatSystemPrompt = "You are Cleuly, a helpful AI assistant. Provide concise, helpful responses."

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	httpPort, err := getEnvInt("HTTP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvInt("SESSION_CACHE_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	llmTimeout, err := getEnvInt("LLM_TIMEOUT_MS", 30000)
	if err != nil {
		return nil, err
	}
	sttTimeout, err := getEnvInt("STT_TIMEOUT_MS", 60000)
	if err != nil {
		return nil, err
	}
	window, err := getEnvInt("CHAT_CONTEXT_WINDOW", 10)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvFloat("LLM_RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	groqKey := getEnv("GROQ_API_KEY", "")
	groqBaseURL := getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1")

	cfg := &Config{
		HTTPPort:        httpPort,
		MongoURI:        getEnv("MONGODB_URI", ""),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "cleuly"),
		SQLiteDSN:       getEnv("SQLITE_DSN", "file:cleuly.db?cache=shared&mode=rwc"),
		RedisURI:        getEnv("REDIS_URI", ""),
		SessionCacheTTL: time.Duration(cacheTTL) * time.Second,
		Groq: ProviderConfig{
			Name:         "groq",
			BaseURL:      groqBaseURL,
			APIKey:       groqKey,
			DefaultModel: getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		},
		OpenRouter: ProviderConfig{
			Name:         "openrouter",
			BaseURL:      getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:       getEnv("OPENROUTER_API_KEY", ""),
			DefaultModel: getEnv("OPENROUTER_MODEL", "nvidia/nemotron-3-nano-30b-a3b:free"),
			// OpenRouter asks integrators to identify themselves.
			Headers: map[string]string{
				"HTTP-Referer": getEnv("OPENROUTER_REFERER", "https://cleuly.app"),
				"X-Title":      getEnv("OPENROUTER_TITLE", "Cleuly"),
			},
		},
		DefaultModel:      getEnv("DEFAULT_MODEL", ""),
		LLMTimeout:        time.Duration(llmTimeout) * time.Millisecond,
		LLMRateLimit:      rateLimit,
		PromptPreset:      getEnv("PROMPT_PRESET", "standard"),
		Mode:              strings.ToUpper(getEnv("APP_MODE", "")),
		ChatContextWindow: window,
		ChatSystemPrompt:  getEnv("CHAT_SYSTEM_PROMPT", DefaultChatSystemPrompt),
		STTBaseURL:        getEnv("STT_BASE_URL", groqBaseURL),
		STTAPIKey:         groqKey,
		STTModel:          getEnv("STT_MODEL", "whisper-large-v3-turbo"),
		STTTimeout:        time.Duration(sttTimeout) * time.Millisecond,
		PolicyFile:        getEnv("MODEL_POLICY_FILE", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", ""))
	if driver == "" {
		driver = StoreSQLite
		if cfg.MongoURI != "" {
			driver = StoreMongo
		}
	}
	switch driver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("STORE_DRIVER=mongo requires MONGODB_URI")
		}
	case StoreSQLite:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER value %q", driver)
	}
	cfg.StoreDriver = driver

	cfg.PromptPreset = strings.ToLower(cfg.PromptPreset)
	switch cfg.PromptPreset {
	case "standard", "classic":
	default:
		return nil, fmt.Errorf("invalid PROMPT_PRESET value %q", cfg.PromptPreset)
	}

	if cfg.ChatContextWindow < 1 {
		cfg.ChatContextWindow = 1
	}

	return cfg, nil
}

// Mock reports whether the offline LLM client should be used.
func (c *Config) Mock() bool {
	return c.Mode == ModeMock
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
