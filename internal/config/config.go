package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the bot service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"meteogram"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	WebhookSecret    string `env:"TELEGRAM_WEBHOOK_SECRET"`
	PublicBaseURL    string `env:"PUBLIC_BASE_URL" envDefault:""`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:""`

	OpenWeatherMapAPIKey string `env:"OPENWEATHERMAP_API_KEY"`
	SerperAPIKey         string `env:"SERPER_API_KEY" envDefault:""`

	DatabaseURL    string        `env:"DATABASE_URL"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	RedisURL string `env:"REDIS_URL"`

	WorkerCount  int           `env:"WORKER_COUNT" envDefault:"4"`
	JobTimeout   time.Duration `env:"JOB_TIMEOUT" envDefault:"120s"`
	HistoryLimit int           `env:"HISTORY_LIMIT" envDefault:"30"`
	MaxToolDepth int           `env:"MAX_TOOL_DEPTH" envDefault:"8"`
	ToolTimeout  time.Duration `env:"TOOL_TIMEOUT" envDefault:"15s"`

	ApprovalTTL      time.Duration `env:"APPROVAL_TTL" envDefault:"1h"`
	SensitiveTools   []string      `env:"SENSITIVE_TOOLS" envSeparator:"," envDefault:""`
	GuardrailEnabled bool          `env:"GUARDRAIL_ENABLED" envDefault:"false"`
}

// Load parses environment variables into Config and validates required values.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	required := []struct {
		name  string
		value string
	}{
		{"TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken},
		{"TELEGRAM_WEBHOOK_SECRET", cfg.WebhookSecret},
		{"OPENAI_API_KEY", cfg.OpenAIAPIKey},
		{"OPENWEATHERMAP_API_KEY", cfg.OpenWeatherMapAPIKey},
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, fmt.Errorf("%s is required", r.name)
		}
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxToolDepth <= 0 {
		cfg.MaxToolDepth = 8
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 15 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 30
	}

	// The env splitter keeps padding around commas; hand downstream
	// consumers clean tool names.
	cfg.SensitiveTools = cleanList(cfg.SensitiveTools)

	return cfg, nil
}

func cleanList(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
