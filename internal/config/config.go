package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port            int
	LogLevel        string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	CompletionModel string
	ChatModel       string
	RequestTimeout  time.Duration
	SessionTTL      time.Duration
	APIToken        string
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
}

// fileConfig mirrors the optional TOML settings file. Zero values mean unset.
type fileConfig struct {
	Port            int    `toml:"port"`
	LogLevel        string `toml:"log_level"`
	OpenAIAPIKey    string `toml:"openai_api_key"`
	OpenAIBaseURL   string `toml:"openai_base_url"`
	CompletionModel string `toml:"completion_model"`
	ChatModel       string `toml:"chat_model"`
	RequestTimeout  string `toml:"request_timeout"`
	SessionTTL      string `toml:"session_ttl"`
	APIToken        string `toml:"api_token"`
	NatsURL         string `toml:"nats_url"`
	NatsToken       string `toml:"nats_token"`
	DatabaseURL     string `toml:"database_url"`
}

func defaults() Config {
	return Config{
		Port:            8760,
		LogLevel:        "info",
		OpenAIBaseURL:   "https://api.openai.com/v1",
		CompletionModel: "gpt-3.5-turbo-0613",
		ChatModel:       "gpt-3.5-turbo",
		RequestTimeout:  120 * time.Second,
		SessionTTL:      24 * time.Hour,
	}
}

// Load builds the config from defaults, then the TOML file named by
// CODEMANAGER_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CODEMANAGER_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envInt("CODEMANAGER_PORT", cfg.Port)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.OpenAIAPIKey = envStr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = envStr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.CompletionModel = envStr("CODEMANAGER_COMPLETION_MODEL", cfg.CompletionModel)
	cfg.ChatModel = envStr("CODEMANAGER_CHAT_MODEL", cfg.ChatModel)
	cfg.RequestTimeout = envDuration("CODEMANAGER_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.SessionTTL = envDuration("CODEMANAGER_SESSION_TTL", cfg.SessionTTL)
	cfg.APIToken = envStr("CODEMANAGER_API_TOKEN", cfg.APIToken)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.NatsToken = envStr("NATS_TOKEN", cfg.NatsToken)
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	setStr(&cfg.LogLevel, fc.LogLevel)
	setStr(&cfg.OpenAIAPIKey, fc.OpenAIAPIKey)
	setStr(&cfg.OpenAIBaseURL, fc.OpenAIBaseURL)
	setStr(&cfg.CompletionModel, fc.CompletionModel)
	setStr(&cfg.ChatModel, fc.ChatModel)
	setStr(&cfg.APIToken, fc.APIToken)
	setStr(&cfg.NatsURL, fc.NatsURL)
	setStr(&cfg.NatsToken, fc.NatsToken)
	setStr(&cfg.DatabaseURL, fc.DatabaseURL)

	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if fc.SessionTTL != "" {
		d, err := time.ParseDuration(fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("session_ttl: %w", err)
		}
		cfg.SessionTTL = d
	}
	return nil
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
