package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	SafeBrowsing SafeBrowsingConfig `yaml:"safebrowsing" mapstructure:"safebrowsing"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Scrape       ScrapeConfig       `yaml:"scrape" mapstructure:"scrape"`
	Doctext      DoctextConfig      `yaml:"doctext" mapstructure:"doctext"`
	Credits      CreditsConfig      `yaml:"credits" mapstructure:"credits"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	RPM       int    `yaml:"rpm" mapstructure:"rpm"`
}

// SafeBrowsingConfig holds Google Safe Browsing settings. An empty key
// disables URL reputation screening.
type SafeBrowsingConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScrapeConfig configures job-posting fetching.
type ScrapeConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBytes    int `yaml:"max_bytes" mapstructure:"max_bytes"`
	Retries     int `yaml:"retries" mapstructure:"retries"`
}

// DoctextConfig configures résumé text extraction.
type DoctextConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MaxPages      int    `yaml:"max_pages" mapstructure:"max_pages"`
	MaxChars      int    `yaml:"max_chars" mapstructure:"max_chars"`
}

// CreditsConfig configures the credit ledger.
type CreditsConfig struct {
	InitialGrant int `yaml:"initial_grant" mapstructure:"initial_grant"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("RUVIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys default empty so the env vars bind through Unmarshal.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.rpm", 30)
	v.SetDefault("safebrowsing.key", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ruvia.db")
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.max_bytes", 512*1024)
	v.SetDefault("scrape.retries", 2)
	v.SetDefault("doctext.pdftotext_path", "pdftotext")
	v.SetDefault("doctext.max_pages", 20)
	v.SetDefault("doctext.max_chars", 60000)
	v.SetDefault("credits.initial_grant", 10)
	v.SetDefault("server.port", 8080)
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
