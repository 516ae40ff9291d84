package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"LinkStrategist/pkg/logger"
)

const (
	configPathEnv     = "LINKSTRATEGIST_CONFIG"
	serverAddrEnv     = "LINKSTRATEGIST_ADDR"
	databaseDSNEnv    = "DATABASE_DSN"
	analyzerAPIKeyEnv = "ANTHROPIC_API_KEY"
	analyzerModelEnv  = "ANALYZER_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var bootLog = logger.New("config")

// Config holds high-level settings required across the application.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	Analyzer      AnalyzerConfig     `yaml:"analyzer"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DatabaseConfig selects the SQL driver and its connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AnalyzerConfig defines how to contact the LLM messages API.
type AnalyzerConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	MaxTokens    int           `yaml:"maxTokens"`
	Timeout      time.Duration `yaml:"timeout"`
	ContentLimit int           `yaml:"contentLimit"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both the token and the chat are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// LoggingConfig sets the minimum slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom is Load with an explicit config file path; an empty path skips the file.
func LoadFrom(path string) Config {
	cfg := Default()

	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			bootLog.Printf("cannot load %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	return cfg
}

func readFile(path string) (Config, error) {
	var fileCfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, err
	}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fileCfg, err
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Address = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(analyzerAPIKeyEnv); v != "" {
		c.Analyzer.APIKey = v
	}

	if v := os.Getenv(analyzerModelEnv); v != "" {
		c.Analyzer.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) normalize() {
	defaults := Default()

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	case "postgresql":
		c.Database.Driver = DriverPostgres
	default:
		bootLog.Printf("unknown database driver %q, reverting to %s", c.Database.Driver, DriverSQLite)
		c.Database.Driver = DriverSQLite
	}

	if c.Analyzer.MaxTokens <= 0 {
		c.Analyzer.MaxTokens = defaults.Analyzer.MaxTokens
	}
	if c.Analyzer.Timeout <= 0 {
		c.Analyzer.Timeout = defaults.Analyzer.Timeout
	}
	if c.Analyzer.ContentLimit <= 0 {
		c.Analyzer.ContentLimit = defaults.Analyzer.ContentLimit
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Address != "" {
		base.Server.Address = override.Server.Address
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Analyzer.Endpoint != "" {
		base.Analyzer.Endpoint = override.Analyzer.Endpoint
	}
	if override.Analyzer.Model != "" {
		base.Analyzer.Model = override.Analyzer.Model
	}
	if override.Analyzer.APIKey != "" {
		base.Analyzer.APIKey = override.Analyzer.APIKey
	}
	if override.Analyzer.MaxTokens != 0 {
		base.Analyzer.MaxTokens = override.Analyzer.MaxTokens
	}
	if override.Analyzer.Timeout != 0 {
		base.Analyzer.Timeout = override.Analyzer.Timeout
	}
	if override.Analyzer.ContentLimit != 0 {
		base.Analyzer.ContentLimit = override.Analyzer.ContentLimit
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Address: ":8000"},
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: "link_placement.db"},
		Analyzer: AnalyzerConfig{
			Endpoint:     "https://api.anthropic.com/v1/messages",
			Model:        "claude-sonnet-4-20250514",
			MaxTokens:    2000,
			Timeout:      30 * time.Second,
			ContentLimit: 12000,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
