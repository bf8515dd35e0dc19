package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Commit    CommitConfig    `yaml:"commit" mapstructure:"commit"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig bounds calls to the extraction model.
type ExtractConfig struct {
	TimeoutSecs       int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	MaxAttempts       int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Timeout returns the extractor deadline.
func (c ExtractConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// CommitConfig configures the commit engine.
type CommitConfig struct {
	DefaultTimezone string `yaml:"default_timezone" mapstructure:"default_timezone"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SYLLABUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key is listed so AutomaticEnv can see it on Unmarshal.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("extract.timeout_secs", 120)
	v.SetDefault("extract.requests_per_minute", 30)
	v.SetDefault("extract.max_attempts", 3)
	v.SetDefault("commit.default_timezone", "UTC")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "store"
// (any command touching the database), "serve", "ingest".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "store", "serve", "ingest":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
		if c.Store.MaxConns < 1 {
			errs = append(errs, "store.max_conns must be > 0")
		}
		if c.Store.MinConns < 0 || c.Store.MinConns > c.Store.MaxConns {
			errs = append(errs, "store.min_conns must be between 0 and store.max_conns")
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of postgres, sqlite", c.Store.Driver))
	}

	if c.Commit.DefaultTimezone != "" {
		if _, err := time.LoadLocation(c.Commit.DefaultTimezone); err != nil {
			errs = append(errs, fmt.Sprintf("commit.default_timezone: %v", err))
		}
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.extractErrors()...)
	case "ingest":
		errs = append(errs, c.extractErrors()...)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) extractErrors() []string {
	var errs []string
	if c.Extract.TimeoutSecs <= 0 {
		errs = append(errs, "extract.timeout_secs must be > 0")
	}
	if c.Extract.MaxAttempts < 1 || c.Extract.MaxAttempts > 10 {
		errs = append(errs, "extract.max_attempts must be between 1 and 10")
	}
	if c.Extract.RequestsPerMinute < 0 {
		errs = append(errs, "extract.requests_per_minute must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
