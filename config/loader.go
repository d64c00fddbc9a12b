// Package config provides configuration loading and parsing functionality
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFormat represents the configuration file format
type ConfigFormat string

const (
	FormatYAML ConfigFormat = "yaml"
	FormatJSON ConfigFormat = "json"
)

// Loader handles configuration loading from various sources
type Loader struct {
	// Configuration search paths
	searchPaths []string

	// Environment variable prefix
	envPrefix string

	// Default configuration
	defaultConfig *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		searchPaths: []string{
			".",
			"./config",
			"./configs",
			"/etc/loom",
			os.Getenv("HOME") + "/.loom",
		},
		envPrefix:     "LOOM",
		defaultConfig: DefaultConfig(),
	}
}

// SetSearchPaths sets the configuration file search paths
func (l *Loader) SetSearchPaths(paths []string) *Loader {
	l.searchPaths = paths
	return l
}

// SetEnvPrefix sets the environment variable prefix
func (l *Loader) SetEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// SetDefaultConfig sets the default configuration
func (l *Loader) SetDefaultConfig(config *Config) *Loader {
	l.defaultConfig = config
	return l
}

// LoadFromFile loads configuration from a specific file, merging it over
// defaults and applying environment overrides.
func (l *Loader) LoadFromFile(filename string) (*Config, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var format ConfigFormat
	switch ext {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json":
		format = FormatJSON
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := l.parseConfig(data, format)
	if err != nil {
		return nil, err
	}

	return l.finish(config)
}

// LoadFromReader loads configuration from an io.Reader
func (l *Loader) LoadFromReader(reader io.Reader, format ConfigFormat) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration data: %w", err)
	}

	config, err := l.parseConfig(data, format)
	if err != nil {
		return nil, err
	}

	return l.finish(config)
}

// AutoLoad automatically discovers and loads configuration. When no
// config file exists the defaults are used, with environment overrides
// still applied.
func (l *Loader) AutoLoad() (*Config, error) {
	configFile, err := l.findConfigFile()
	if err != nil {
		if err == ErrConfigFileNotFound {
			config := l.defaults()
			if err := l.loadFromEnv(config); err != nil {
				return nil, fmt.Errorf("failed to load config from environment: %w", err)
			}
			if err := config.Validate(); err != nil {
				return nil, fmt.Errorf("configuration validation failed: %w", err)
			}
			return config, nil
		}
		return nil, err
	}

	return l.LoadFromFile(configFile)
}

// finish merges a parsed config over defaults, applies environment
// overrides, and validates.
func (l *Loader) finish(config *Config) (*Config, error) {
	config = l.mergeConfig(l.defaults(), config)

	if err := l.loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func (l *Loader) defaults() *Config {
	if l.defaultConfig != nil {
		copied := *l.defaultConfig
		return &copied
	}
	return DefaultConfig()
}

// findConfigFile searches for configuration files in search paths
func (l *Loader) findConfigFile() (string, error) {
	filenames := []string{
		"loom.yaml", "loom.yml",
		"config.yaml", "config.yml",
		"loom.json", "config.json",
	}

	for _, searchPath := range l.searchPaths {
		for _, filename := range filenames {
			fullPath := filepath.Join(searchPath, filename)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
	}

	return "", ErrConfigFileNotFound
}

// parseConfig parses configuration data based on format
func (l *Loader) parseConfig(data []byte, format ConfigFormat) (*Config, error) {
	config := &Config{}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}

	return config, nil
}

// loadFromEnv loads configuration overrides from environment variables
func (l *Loader) loadFromEnv(config *Config) error {
	// App configuration
	if val := os.Getenv(l.envPrefix + "_APP_NAME"); val != "" {
		config.App.Name = val
	}
	if val := os.Getenv(l.envPrefix + "_APP_VERSION"); val != "" {
		config.App.Version = val
	}
	if val := os.Getenv(l.envPrefix + "_APP_ENVIRONMENT"); val != "" {
		config.App.Environment = Environment(val)
	}
	if val := os.Getenv(l.envPrefix + "_APP_DEBUG"); val != "" {
		config.App.Debug = strings.ToLower(val) == "true"
	}

	// Log configuration
	if val := os.Getenv(l.envPrefix + "_LOG_LEVEL"); val != "" {
		config.Log.Level = LogLevel(val)
	}
	if val := os.Getenv(l.envPrefix + "_LOG_FORMAT"); val != "" {
		config.Log.Format = val
	}
	if val := os.Getenv(l.envPrefix + "_LOG_OUTPUT"); val != "" {
		config.Log.Output = val
	}

	// Scheduler configuration
	if val := os.Getenv(l.envPrefix + "_SCHEDULER_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			config.Scheduler.Workers = n
		}
	}
	if val := os.Getenv(l.envPrefix + "_SCHEDULER_THROUGHPUT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			config.Scheduler.Throughput = n
		}
	}

	// Actor configuration
	if val := os.Getenv(l.envPrefix + "_ACTOR_MAILBOX_KIND"); val != "" {
		config.Actor.MailboxKind = val
	}
	if val := os.Getenv(l.envPrefix + "_ACTOR_MAILBOX_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			config.Actor.DefaultMailboxSize = n
		}
	}
	if val := os.Getenv(l.envPrefix + "_ACTOR_STOP_POLICY"); val != "" {
		config.Actor.StopPolicy = val
	}

	// Supervision configuration
	if val := os.Getenv(l.envPrefix + "_SUPERVISION_ROOT_REACTION"); val != "" {
		config.Supervision.RootReaction = val
	}
	if val := os.Getenv(l.envPrefix + "_SUPERVISION_MAX_RESTARTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			config.Supervision.MaxRestarts = n
		}
	}
	if val := os.Getenv(l.envPrefix + "_SUPERVISION_RESTART_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			config.Supervision.RestartWindow = d
		}
	}

	// Dead-letter configuration
	if val := os.Getenv(l.envPrefix + "_DEAD_LETTER_BUFFER"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			config.DeadLetter.BufferSize = n
		}
	}

	return nil
}

// mergeConfig merges user config with default config
func (l *Loader) mergeConfig(defaultConfig, userConfig *Config) *Config {
	merged := *defaultConfig

	// App config
	if userConfig.App.Name != "" {
		merged.App.Name = userConfig.App.Name
	}
	if userConfig.App.Version != "" {
		merged.App.Version = userConfig.App.Version
	}
	if userConfig.App.Environment != "" {
		merged.App.Environment = userConfig.App.Environment
	}
	merged.App.Debug = userConfig.App.Debug
	if userConfig.App.Metadata != nil {
		merged.App.Metadata = userConfig.App.Metadata
	}

	// Log config
	if userConfig.Log.Level != "" {
		merged.Log.Level = userConfig.Log.Level
	}
	if userConfig.Log.Format != "" {
		merged.Log.Format = userConfig.Log.Format
	}
	if userConfig.Log.Output != "" {
		merged.Log.Output = userConfig.Log.Output
	}

	// Scheduler config
	if userConfig.Scheduler.Workers != 0 {
		merged.Scheduler.Workers = userConfig.Scheduler.Workers
	}
	if userConfig.Scheduler.DequeCapacity != 0 {
		merged.Scheduler.DequeCapacity = userConfig.Scheduler.DequeCapacity
	}
	if userConfig.Scheduler.Throughput != 0 {
		merged.Scheduler.Throughput = userConfig.Scheduler.Throughput
	}

	// Actor config
	if userConfig.Actor.MailboxKind != "" {
		merged.Actor.MailboxKind = userConfig.Actor.MailboxKind
	}
	if userConfig.Actor.DefaultMailboxSize != 0 {
		merged.Actor.DefaultMailboxSize = userConfig.Actor.DefaultMailboxSize
	}
	if userConfig.Actor.StopPolicy != "" {
		merged.Actor.StopPolicy = userConfig.Actor.StopPolicy
	}
	if userConfig.Actor.ShutdownTimeout != 0 {
		merged.Actor.ShutdownTimeout = userConfig.Actor.ShutdownTimeout
	}

	// Supervision config
	if userConfig.Supervision.RootReaction != "" {
		merged.Supervision.RootReaction = userConfig.Supervision.RootReaction
	}
	if userConfig.Supervision.MaxRestarts != 0 {
		merged.Supervision.MaxRestarts = userConfig.Supervision.MaxRestarts
	}
	if userConfig.Supervision.RestartWindow != 0 {
		merged.Supervision.RestartWindow = userConfig.Supervision.RestartWindow
	}

	// Dead-letter config
	if userConfig.DeadLetter.BufferSize != 0 {
		merged.DeadLetter.BufferSize = userConfig.DeadLetter.BufferSize
	}

	// Custom fields
	if userConfig.Custom != nil {
		if merged.Custom == nil {
			merged.Custom = make(map[string]interface{})
		}
		for k, v := range userConfig.Custom {
			merged.Custom[k] = v
		}
	}

	return &merged
}
