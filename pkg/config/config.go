package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Completion   CompletionConfig   `mapstructure:"completion"`
	Server       ServerConfig       `mapstructure:"server"`
	Limits       LimitsConfig       `mapstructure:"limits"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Google       GoogleConfig       `mapstructure:"google"`
}

type TelegramConfig struct {
	// Token and ProjectID are only used by long polling; webhook mode reads
	// each project's token from storage.
	Token         string `mapstructure:"token"`
	ProjectID     string `mapstructure:"project_id"`
	APIEndpoint   string `mapstructure:"api_endpoint"`
	SecretToken   string `mapstructure:"secret_token"`
	InlineReplies bool   `mapstructure:"inline_replies"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the SQLite database file, or ":memory:".
	Path string `mapstructure:"path"`
}

type CompletionConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LimitsConfig struct {
	ActionsPerMinute int `mapstructure:"actions_per_minute"`
	ActionsPerDay    int `mapstructure:"actions_per_day"`
	UsagePerDay      int `mapstructure:"usage_per_day"`
}

type ConversationConfig struct {
	// HandleTimeout bounds the processing of one inbound message.
	HandleTimeout time.Duration `mapstructure:"handle_timeout"`
}

type GoogleConfig struct {
	ReviewsBaseURL string        `mapstructure:"reviews_base_url"`
	InfoBaseURL    string        `mapstructure:"info_base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Driver:   "postgres",
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

// LoadConfig reads the YAML file at path, when given, on top of the defaults
// and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/frontdesk.db")
	v.SetDefault("completion.provider", "openai")
	v.SetDefault("completion.model", "gpt-4o-mini")
	v.SetDefault("completion.max_tokens", 600)
	v.SetDefault("completion.temperature", 0.4)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 35*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("limits.actions_per_minute", 5)
	v.SetDefault("limits.actions_per_day", 100)
	v.SetDefault("limits.usage_per_day", 300)
	v.SetDefault("conversation.handle_timeout", 25*time.Second)
	v.SetDefault("google.reviews_base_url", "https://mybusiness.googleapis.com/v4")
	v.SetDefault("google.info_base_url", "https://mybusinessbusinessinformation.googleapis.com/v1")
	v.SetDefault("google.timeout", 15*time.Second)

	// Enable environment variable support, e.g. SERVER_ADDR for server.addr
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	switch config.Completion.Provider {
	case "openai":
		if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
			config.Completion.APIKey = apiKey
		}
	case "gemini":
		if apiKey := v.GetString("GEMINI_API_KEY"); apiKey != "" {
			config.Completion.APIKey = apiKey
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Completion.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown completion provider %q", c.Completion.Provider)
	}
	if c.Limits.ActionsPerMinute <= 0 || c.Limits.ActionsPerDay <= 0 || c.Limits.UsagePerDay <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	return nil
}
