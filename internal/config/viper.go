// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Detection struct {
		MinOccurrences int `mapstructure:"min_occurrences" yaml:"min_occurrences"`
		LookbackDays   int `mapstructure:"lookback_days" yaml:"lookback_days"`
		Workers        int `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"detection" yaml:"detection"`

	Tables struct {
		CategoriesFile string `mapstructure:"categories_file" yaml:"categories_file"`
		IconsFile      string `mapstructure:"icons_file" yaml:"icons_file"`
	} `mapstructure:"tables" yaml:"tables"`

	Store struct {
		Driver string `mapstructure:"driver" yaml:"driver"`
		Path   string `mapstructure:"path" yaml:"path"`
		DSN    string `mapstructure:"dsn" yaml:"-"` // Never serialize credentials
	} `mapstructure:"store" yaml:"store"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`
}

// DelimiterRune returns the configured CSV delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r := []rune(c.CSV.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.subsync")
	v.AddConfigPath(".subsync")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("SUBSYNC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. The conventional DATABASE_URL also provides the DSN
	if err := v.BindEnv("store.dsn", "SUBSYNC_STORE_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind store DSN environment variables: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("detection.min_occurrences", 2)
	v.SetDefault("detection.lookback_days", 90)
	v.SetDefault("detection.workers", 4)

	v.SetDefault("tables.categories_file", "")
	v.SetDefault("tables.icons_file", "")

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("store.dsn", "")

	v.SetDefault("csv.delimiter", ",")
}

// defaultStorePath places the store file next to the user configuration.
func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".subsync", "subscriptions.yaml")
	}
	return filepath.Join(home, ".subsync", "subscriptions.yaml")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Detection.MinOccurrences < 2 {
		return fmt.Errorf("detection.min_occurrences must be at least 2, got: %d", config.Detection.MinOccurrences)
	}
	if config.Detection.LookbackDays < 0 {
		return fmt.Errorf("detection.lookback_days must not be negative, got: %d", config.Detection.LookbackDays)
	}
	if config.Detection.Workers < 1 {
		return fmt.Errorf("detection.workers must be at least 1, got: %d", config.Detection.Workers)
	}

	switch config.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if config.Store.Path == "" {
			return fmt.Errorf("store.path required when store.driver is file")
		}
	case DriverPostgres:
		if config.Store.DSN == "" {
			return fmt.Errorf("store.dsn or DATABASE_URL required when store.driver is postgres")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be 'file', 'memory' or 'postgres')", config.Store.Driver)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 || strings.ContainsAny(config.CSV.Delimiter, "\"\r\n") {
		return fmt.Errorf("CSV delimiter must be a single character, got: %q", config.CSV.Delimiter)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
