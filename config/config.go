package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable of the application. Zero values are never
// used directly; Load fills in defaults.
type Config struct {
	// APIKey authenticates against the OpenAI-compatible endpoint.
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	// AnthropicAPIKey is only needed when an agent uses the anthropic
	// provider.
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`

	SessionsFile string `mapstructure:"sessions_file"`
	MemoriesFile string `mapstructure:"memories_file"`
	// AgentsFile optionally overrides the built-in agent panel with a TOML
	// roster.
	AgentsFile string `mapstructure:"agents_file"`

	MaxTokens   int64   `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`

	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`

	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads configuration with viper: built-in defaults, then an optional
// config file (path may be empty), then CHATBOX_-prefixed environment
// variables. A missing file is fine; an unreadable or malformed one is not.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "https://api.openai.com/v1")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("sessions_file", "chat_sessions.json")
	v.SetDefault("memories_file", "memories.json")
	v.SetDefault("agents_file", "")
	v.SetDefault("max_tokens", 4000)
	v.SetDefault("temperature", 0.3)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay", 2*time.Second)
	v.SetDefault("rate_limit_requests", 100)
	v.SetDefault("rate_limit_window", time.Minute)
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("CHATBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants a run cannot start without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required (set CHATBOX_API_KEY)")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.RateLimitRequests < 0 {
		return fmt.Errorf("rate_limit_requests must not be negative, got %d", c.RateLimitRequests)
	}
	return nil
}
