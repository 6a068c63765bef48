// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML file.
const ConfigFileEnv = "WASHBOT_CONFIG"

// LLM provider names.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGRPC      = "grpc"
)

// Config holds all application configuration.
type Config struct {
	Port            string                `yaml:"port"`
	FrontendURL     string                `yaml:"frontend_url"`
	DBPath          string                `yaml:"db_path"`
	AllowedOrigins  []string              `yaml:"allowed_origins"`
	Bot             BotConfig             `yaml:"bot"`
	LLM             LLMConfig             `yaml:"llm"`
	Mantis          MantisConfig          `yaml:"mantis"`
	RateLimit       RateLimitConfig       `yaml:"rate_limit"`
	ConversationLog ConversationLogConfig `yaml:"conversation_log"`
}

// BotConfig controls how chat events are filtered and routed.
type BotConfig struct {
	CommandPrefix    string `yaml:"command_prefix"`
	SupportChannelID string `yaml:"support_channel_id"`
	BotUserID        string `yaml:"bot_user_id"`
	HistoryLimit     int    `yaml:"history_limit"` // 0 keeps every turn
}

// LLMConfig selects and configures the classifier backend.
type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	OpenAIKey      string        `yaml:"openai_api_key"`
	OpenAIModel    string        `yaml:"openai_model"`
	AnthropicKey   string        `yaml:"anthropic_api_key"`
	AnthropicModel string        `yaml:"anthropic_model"`
	GRPCAddr       string        `yaml:"grpc_addr"`
	Timeout        time.Duration `yaml:"timeout"`
	RatePerMinute  int           `yaml:"rate_per_minute"`
}

// MantisConfig holds issue tracker credentials.
type MantisConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	ProjectID int64         `yaml:"project_id"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Enabled reports whether an issue tracker endpoint is configured.
func (m MantisConfig) Enabled() bool {
	return m.BaseURL != ""
}

// RateLimitConfig bounds how many messages one user may send per window.
type RateLimitConfig struct {
	RequestsPerWindow int           `yaml:"requests_per_window"`
	WindowDuration    time.Duration `yaml:"window"`
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Dir       string `yaml:"dir"`
	QueueSize int    `yaml:"queue_size"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:           "8080",
		DBPath:         "./data/bot_database.db",
		AllowedOrigins: []string{"*"},
		Bot: BotConfig{
			CommandPrefix: "!",
		},
		LLM: LLMConfig{
			Provider:       ProviderNone,
			OpenAIModel:    "gpt-4o-mini",
			AnthropicModel: "claude-3-5-haiku-latest",
			Timeout:        15 * time.Second,
			RatePerMinute:  60,
		},
		Mantis: MantisConfig{
			ProjectID: 1,
			Timeout:   10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: 10,
			WindowDuration:    time.Minute,
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   false,
			Dir:       "./data/logs/conversations",
			QueueSize: 1000,
		},
	}
}

// Load reads configuration from an optional YAML file and then from
// environment variables, which take precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)

	c.Bot.CommandPrefix = getEnv("COMMAND_PREFIX", c.Bot.CommandPrefix)
	c.Bot.SupportChannelID = getEnv("SUPPORT_CHANNEL_ID", c.Bot.SupportChannelID)
	c.Bot.BotUserID = getEnv("BOT_USER_ID", c.Bot.BotUserID)
	c.Bot.HistoryLimit = getEnvInt("SESSION_HISTORY_LIMIT", c.Bot.HistoryLimit)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.OpenAIKey = getEnv("OPENAI_API_KEY", c.LLM.OpenAIKey)
	c.LLM.OpenAIModel = getEnv("OPENAI_MODEL", c.LLM.OpenAIModel)
	c.LLM.AnthropicKey = getEnv("ANTHROPIC_API_KEY", c.LLM.AnthropicKey)
	c.LLM.AnthropicModel = getEnv("ANTHROPIC_MODEL", c.LLM.AnthropicModel)
	c.LLM.GRPCAddr = getEnv("LLM_GRPC_ADDR", c.LLM.GRPCAddr)
	c.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.RatePerMinute = getEnvInt("LLM_RATE_PER_MINUTE", c.LLM.RatePerMinute)

	c.Mantis.BaseURL = getEnv("MANTIS_BASE_URL", c.Mantis.BaseURL)
	c.Mantis.Username = getEnv("MANTIS_USERNAME", c.Mantis.Username)
	c.Mantis.Password = getEnv("MANTIS_PASSWORD", c.Mantis.Password)
	c.Mantis.ProjectID = int64(getEnvInt("MANTIS_PROJECT_ID", int(c.Mantis.ProjectID)))
	c.Mantis.Timeout = getEnvDuration("MANTIS_TIMEOUT", c.Mantis.Timeout)

	c.RateLimit.RequestsPerWindow = getEnvInt("RATE_LIMIT_REQUESTS", c.RateLimit.RequestsPerWindow)
	c.RateLimit.WindowDuration = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimit.WindowDuration)

	c.ConversationLog.Enabled = getEnvBool("CONVERSATION_LOG_ENABLED", c.ConversationLog.Enabled)
	c.ConversationLog.Dir = getEnv("CONVERSATION_LOG_DIR", c.ConversationLog.Dir)
	c.ConversationLog.QueueSize = getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", c.ConversationLog.QueueSize)
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Bot.CommandPrefix == "" {
		return fmt.Errorf("COMMAND_PREFIX cannot be empty")
	}
	if c.Bot.HistoryLimit < 0 {
		return fmt.Errorf("SESSION_HISTORY_LIMIT must be >= 0")
	}

	switch c.LLM.Provider {
	case ProviderNone, "":
		c.LLM.Provider = ProviderNone
	case ProviderOpenAI:
		if c.LLM.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case ProviderAnthropic:
		if c.LLM.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	case ProviderGRPC:
		if c.LLM.GRPCAddr == "" {
			return fmt.Errorf("LLM_GRPC_ADDR is required when LLM_PROVIDER=grpc")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}

	if c.Mantis.Enabled() {
		if c.Mantis.Username == "" {
			return fmt.Errorf("MANTIS_USERNAME is required when MANTIS_BASE_URL is set")
		}
		if c.Mantis.ProjectID <= 0 {
			return fmt.Errorf("MANTIS_PROJECT_ID must be > 0")
		}
	}
	if c.Mantis.Timeout <= 0 {
		return fmt.Errorf("MANTIS_TIMEOUT must be > 0")
	}

	if c.RateLimit.RequestsPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}

	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
