package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRESTEndpoint   = "https://api.binance.com/api/v3"
	DefaultWSEndpoint     = "wss://stream.binance.com:9443/ws"
	DefaultHTTPTimeout    = 10 * time.Second
	DefaultQuoteAsset     = "USDT"
	DefaultMinVolume      = 10_000_000
	DefaultRatio          = 30
	DefaultGroupSize      = 30
	DefaultRequestTimeout = 15 * time.Second
	DefaultInterval       = "1m"
	DefaultKlineLimit     = 500
	DefaultLogLevel       = "info"
	DefaultPort           = 8080
	DefaultDBPath         = "screener.db"
)

type Config struct {
	Exchange struct {
		RESTEndpoint string        `yaml:"rest_endpoint"`
		WSEndpoint   string        `yaml:"ws_endpoint"`
		HTTPTimeout  time.Duration `yaml:"http_timeout"`
	} `yaml:"exchange"`
	Screener struct {
		QuoteAsset     string        `yaml:"quote_asset"`
		MinVolume      *float64      `yaml:"min_volume"`
		Ratio          float64       `yaml:"ratio"`
		GroupSize      int           `yaml:"group_size"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"screener"`
	Klines struct {
		Interval string `yaml:"interval"`
		Limit    int    `yaml:"limit"`
	} `yaml:"klines"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		// Empty disables the scan journal.
		DBPath *string `yaml:"db_path"`
	} `yaml:"storage"`
}

// Default returns a config with every field set to its default.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load reads and parses a YAML configuration file. Missing fields take defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides it with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SCREENER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("SCREENER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCREENER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(getenv, "SCREENER_DB_PATH"); ok {
		c.Storage.DBPath = &v
	}
	return nil
}

// lookup treats "-" as an explicit empty value so the journal can be disabled from the environment.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch v {
	case "":
		return "", false
	case "-":
		return "", true
	default:
		return v, true
	}
}

func (c *Config) applyDefaults() {
	if c.Exchange.RESTEndpoint == "" {
		c.Exchange.RESTEndpoint = DefaultRESTEndpoint
	}
	if c.Exchange.WSEndpoint == "" {
		c.Exchange.WSEndpoint = DefaultWSEndpoint
	}
	if c.Exchange.HTTPTimeout == 0 {
		c.Exchange.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.Screener.QuoteAsset == "" {
		c.Screener.QuoteAsset = DefaultQuoteAsset
	}
	if c.Screener.MinVolume == nil {
		minVolume := float64(DefaultMinVolume)
		c.Screener.MinVolume = &minVolume
	}
	if c.Screener.Ratio == 0 {
		c.Screener.Ratio = DefaultRatio
	}
	if c.Screener.GroupSize == 0 {
		c.Screener.GroupSize = DefaultGroupSize
	}
	if c.Screener.RequestTimeout == 0 {
		c.Screener.RequestTimeout = DefaultRequestTimeout
	}
	if c.Klines.Interval == "" {
		c.Klines.Interval = DefaultInterval
	}
	if c.Klines.Limit == 0 {
		c.Klines.Limit = DefaultKlineLimit
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Storage.DBPath == nil {
		path := DefaultDBPath
		c.Storage.DBPath = &path
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if v := c.MinVolume(); v < 0 {
		return fmt.Errorf("screener.min_volume must not be negative, got %v", v)
	}
	if c.Screener.Ratio <= 0 || c.Screener.Ratio > 100 {
		return fmt.Errorf("screener.ratio must be in (0, 100], got %v", c.Screener.Ratio)
	}
	if c.Screener.GroupSize < 0 {
		return fmt.Errorf("screener.group_size must be positive, got %d", c.Screener.GroupSize)
	}
	if c.Screener.RequestTimeout < 0 {
		return fmt.Errorf("screener.request_timeout must not be negative")
	}
	if c.Klines.Limit < 0 || c.Klines.Limit > 1000 {
		return fmt.Errorf("klines.limit must be between 1 and 1000, got %d", c.Klines.Limit)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got '%s'", c.Logging.Level)
	}
	return nil
}

// MinVolume returns the 24h quote volume floor. An explicit 0 admits every symbol.
func (c *Config) MinVolume() float64 {
	if c.Screener.MinVolume == nil {
		return DefaultMinVolume
	}
	return *c.Screener.MinVolume
}

// JournalPath returns the sqlite path, or "" when the journal is disabled.
func (c *Config) JournalPath() string {
	if c.Storage.DBPath == nil {
		return ""
	}
	return *c.Storage.DBPath
}
