// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// EnvPrefix prefixes every environment override, e.g. EXPENSE_LOG_LEVEL.
const EnvPrefix = "EXPENSE"

// apiKeyEnv lists the variables ai.api_key is read from, first set wins.
var apiKeyEnv = []string{"EXPENSE_AI_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type ImportConfig struct {
	HeaderScanRows    int  `mapstructure:"header_scan_rows" yaml:"header_scan_rows"`
	IncludeDuplicates bool `mapstructure:"include_duplicates" yaml:"include_duplicates"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

type CategorizationConfig struct {
	AutoLearn        bool   `mapstructure:"auto_learn" yaml:"auto_learn"`
	KeywordsFile     string `mapstructure:"keywords_file" yaml:"keywords_file"`
	DescriptionWords int    `mapstructure:"description_words" yaml:"description_words"`
	VendorWords      int    `mapstructure:"vendor_words" yaml:"vendor_words"`
}

type AIConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	Provider          string `mapstructure:"provider" yaml:"provider"`
	Model             string `mapstructure:"model" yaml:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	APIKey            string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
}

type ExportConfig struct {
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

// Config represents the complete application configuration
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	Import         ImportConfig         `mapstructure:"import" yaml:"import"`
	Storage        StorageConfig        `mapstructure:"storage" yaml:"storage"`
	Categorization CategorizationConfig `mapstructure:"categorization" yaml:"categorization"`
	AI             AIConfig             `mapstructure:"ai" yaml:"ai"`
	Export         ExportConfig         `mapstructure:"export" yaml:"export"`
}

// InitializeConfig loads configuration from the default locations.
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load initializes Viper configuration with hierarchical loading. A non-empty
// configFile replaces the search paths and must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.expense-import")
		v.AddConfigPath(".expense-import")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. The API key is also read from the providers' own variables
	if err := v.BindEnv(append([]string{"ai.api_key"}, apiKeyEnv...)...); err != nil {
		return nil, fmt.Errorf("failed to bind API key environment variables: %w", err)
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

	v.SetDefault("import.header_scan_rows", 50)
	v.SetDefault("import.include_duplicates", false)

	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("storage.path", "database/expenses.db")

	v.SetDefault("categorization.auto_learn", true)
	v.SetDefault("categorization.keywords_file", "")
	v.SetDefault("categorization.description_words", 3)
	v.SetDefault("categorization.vendor_words", 4)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.requests_per_minute", 10)
	v.SetDefault("ai.timeout_seconds", 10)

	v.SetDefault("export.delimiter", ",")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Import.HeaderScanRows < 1 {
		return fmt.Errorf("import.header_scan_rows must be positive, got: %d", config.Import.HeaderScanRows)
	}

	switch config.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if config.Storage.Path == "" {
			return fmt.Errorf("storage.path required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be 'memory' or 'sqlite')", config.Storage.Driver)
	}

	if config.Categorization.DescriptionWords < 1 || config.Categorization.VendorWords < 1 {
		return fmt.Errorf("categorization word counts must be positive")
	}

	if config.AI.Enabled {
		if config.AI.Provider != ProviderGemini && config.AI.Provider != ProviderOpenAI {
			return fmt.Errorf("invalid AI provider: %s (must be 'gemini' or 'openai')", config.AI.Provider)
		}

		if config.AI.APIKey == "" {
			return fmt.Errorf("API key required when AI is enabled (set %s)", strings.Join(apiKeyEnv, ", "))
		}

		if config.AI.RequestsPerMinute < 1 || config.AI.RequestsPerMinute > 1000 {
			return fmt.Errorf("ai.requests_per_minute must be between 1 and 1000, got: %d", config.AI.RequestsPerMinute)
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	if len([]rune(config.Export.Delimiter)) != 1 {
		return fmt.Errorf("export delimiter must be a single character, got: %s", config.Export.Delimiter)
	}

	return nil
}

// ExportDelimiter returns the export delimiter as a rune.
func (c *Config) ExportDelimiter() rune {
	return []rune(c.Export.Delimiter)[0]
}
