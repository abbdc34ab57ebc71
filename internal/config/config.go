package config

import (
	"fmt"
	"strings"

	"image-optimizer-go/internal/codec"
	"image-optimizer-go/internal/optimizer"

	"github.com/spf13/viper"
)

// Config is the root configuration structure, built once at process
// start and threaded through the components as a parameter.
type Config struct {
	Optimize OptimizeConfig `mapstructure:"optimize"`
	API      APIConfig      `mapstructure:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// OptimizeConfig contains the resize/re-encode settings.
type OptimizeConfig struct {
	Format       string `mapstructure:"format"`
	Quality      int    `mapstructure:"quality"`
	MaxDimension int    `mapstructure:"max_dimension"`
}

// APIConfig contains the upload endpoint settings. Host, Endpoint and
// Key default from the API_HOST, REGISTER_IMAGE_ENDPOINT and API_KEY
// environment variables.
type APIConfig struct {
	Host     string `mapstructure:"host"`
	Endpoint string `mapstructure:"endpoint"`
	Key      string `mapstructure:"key"`
}

// URL returns the full default upload URL.
func (a APIConfig) URL() string {
	return a.Host + a.Endpoint
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Optimize: OptimizeConfig{
			Format:       "jpg",
			Quality:      optimizer.DefaultQuality,
			MaxDimension: optimizer.DefaultMaxDimension,
		},
		API: APIConfig{
			Host:     "http://localhost:1880",
			Endpoint: "/image-embed",
			Key:      "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from an optional YAML file and the
// environment.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.image-optimizer")
		v.AddConfigPath("/etc/image-optimizer")
	}

	v.SetDefault("optimize.format", config.Optimize.Format)
	v.SetDefault("optimize.quality", config.Optimize.Quality)
	v.SetDefault("optimize.max_dimension", config.Optimize.MaxDimension)
	v.SetDefault("api.host", config.API.Host)
	v.SetDefault("api.endpoint", config.API.Endpoint)
	v.SetDefault("api.key", config.API.Key)
	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.max_size", config.Logging.MaxSize)
	v.SetDefault("logging.max_backups", config.Logging.MaxBackups)
	v.SetDefault("logging.max_age", config.Logging.MaxAge)
	v.SetDefault("logging.compress", config.Logging.Compress)

	// The API settings keep their historical environment names.
	_ = v.BindEnv("api.host", "API_HOST")
	_ = v.BindEnv("api.endpoint", "REGISTER_IMAGE_ENDPOINT")
	_ = v.BindEnv("api.key", "API_KEY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Missing config file is fine, defaults and env apply.
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := codec.ParseFormat(c.Optimize.Format); err != nil {
		return err
	}

	if c.Optimize.Quality < 0 || c.Optimize.Quality > 100 {
		return fmt.Errorf("quality must be in 0-100, got %d", c.Optimize.Quality)
	}

	if c.Optimize.MaxDimension <= 0 {
		return fmt.Errorf("max dimension must be positive, got %d", c.Optimize.MaxDimension)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}
