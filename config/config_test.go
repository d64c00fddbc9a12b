package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestConfig tests basic configuration functionality
func TestConfig(t *testing.T) {
	config := DefaultConfig()
	config.App.Name = "test-app"

	if err := config.Validate(); err != nil {
		t.Fatalf("Config validation failed: %v", err)
	}

	if config.App.Name != "test-app" {
		t.Errorf("Expected app name 'test-app', got '%s'", config.App.Name)
	}
	if !config.IsDevelopment() {
		t.Error("Expected development environment by default")
	}
	if !config.IsDebugEnabled() {
		t.Error("Expected debug enabled in development")
	}
}

// TestConfigValidation tests configuration validation
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty app name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: ErrInvalidAppName,
		},
		{
			name:    "bad environment",
			mutate:  func(c *Config) { c.App.Environment = "lunar" },
			wantErr: ErrInvalidEnvironment,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Scheduler.Workers = -1 },
			wantErr: ErrInvalidWorkers,
		},
		{
			name:    "zero throughput",
			mutate:  func(c *Config) { c.Scheduler.Throughput = 0 },
			wantErr: ErrInvalidThroughput,
		},
		{
			name:    "bad mailbox kind",
			mutate:  func(c *Config) { c.Actor.MailboxKind = "ring" },
			wantErr: ErrInvalidMailboxKind,
		},
		{
			name:    "bad stop policy",
			mutate:  func(c *Config) { c.Actor.StopPolicy = "hang" },
			wantErr: ErrInvalidStopPolicy,
		},
		{
			name:    "bad root reaction",
			mutate:  func(c *Config) { c.Supervision.RootReaction = "shrug" },
			wantErr: ErrInvalidRootReaction,
		},
		{
			name:    "zero dead letter buffer",
			mutate:  func(c *Config) { c.DeadLetter.BufferSize = 0 },
			wantErr: ErrInvalidDeadLetterBuffer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if tt.wantErr != nil && err != tt.wantErr {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoader tests YAML configuration loading
func TestLoader(t *testing.T) {
	loader := NewLoader()

	yamlContent := `
app:
  name: test-app
  version: "1.0.0"
  environment: development

log:
  level: info
  format: text

scheduler:
  workers: 4
  throughput: 32

actor:
  mailbox_kind: bounded
  default_mailbox_size: 500
`

	tmpDir := t.TempDir()
	yamlFile := filepath.Join(tmpDir, "test-config.yaml")
	if err := os.WriteFile(yamlFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	config, err := loader.LoadFromFile(yamlFile)
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if config.App.Name != "test-app" {
		t.Errorf("Expected app name 'test-app', got '%s'", config.App.Name)
	}
	if config.Scheduler.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", config.Scheduler.Workers)
	}
	if config.Scheduler.Throughput != 32 {
		t.Errorf("Expected throughput 32, got %d", config.Scheduler.Throughput)
	}
	if config.Actor.MailboxKind != "bounded" {
		t.Errorf("Expected bounded mailbox, got %s", config.Actor.MailboxKind)
	}
	// Defaults fill unspecified sections.
	if config.Supervision.RootReaction != "log" {
		t.Errorf("Expected default root reaction, got %s", config.Supervision.RootReaction)
	}
	if config.DeadLetter.BufferSize != 128 {
		t.Errorf("Expected default dead letter buffer, got %d", config.DeadLetter.BufferSize)
	}
}

// TestLoaderJSON tests JSON configuration loading
func TestLoaderJSON(t *testing.T) {
	loader := NewLoader()

	jsonContent := `{
	"app": {
		"name": "json-test-app",
		"version": "2.0.0",
		"environment": "production"
	},
	"log": {
		"level": "debug",
		"format": "json"
	},
	"supervision": {
		"root_reaction": "crash",
		"max_restarts": 5
	}
}`

	tmpDir := t.TempDir()
	jsonFile := filepath.Join(tmpDir, "test-config.json")
	if err := os.WriteFile(jsonFile, []byte(jsonContent), 0644); err != nil {
		t.Fatalf("Failed to create test JSON file: %v", err)
	}

	config, err := loader.LoadFromFile(jsonFile)
	if err != nil {
		t.Fatalf("Failed to load JSON config: %v", err)
	}

	if config.App.Name != "json-test-app" {
		t.Errorf("Expected app name 'json-test-app', got '%s'", config.App.Name)
	}
	if config.App.Environment != EnvProduction {
		t.Errorf("Expected env production, got %v", config.App.Environment)
	}
	if config.Supervision.RootReaction != "crash" {
		t.Errorf("Expected root reaction crash, got %s", config.Supervision.RootReaction)
	}
	if config.Supervision.MaxRestarts != 5 {
		t.Errorf("Expected max restarts 5, got %d", config.Supervision.MaxRestarts)
	}
}

// TestEnvironmentOverrides tests environment variable overrides
func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("LOOM_APP_NAME", "env-test-app")
	os.Setenv("LOOM_SCHEDULER_WORKERS", "8")
	os.Setenv("LOOM_LOG_LEVEL", "error")
	os.Setenv("LOOM_SUPERVISION_RESTART_WINDOW", "30s")
	defer func() {
		os.Unsetenv("LOOM_APP_NAME")
		os.Unsetenv("LOOM_SCHEDULER_WORKERS")
		os.Unsetenv("LOOM_LOG_LEVEL")
		os.Unsetenv("LOOM_SUPERVISION_RESTART_WINDOW")
	}()

	loader := NewLoader()

	yamlContent := `
app:
  name: base-app
  version: "1.0.0"
  environment: development

log:
  level: info

scheduler:
  workers: 2
`

	tmpDir := t.TempDir()
	yamlFile := filepath.Join(tmpDir, "env-test-config.yaml")
	if err := os.WriteFile(yamlFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	config, err := loader.LoadFromFile(yamlFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.App.Name != "env-test-app" {
		t.Errorf("Expected app name 'env-test-app', got '%s'", config.App.Name)
	}
	if config.Scheduler.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", config.Scheduler.Workers)
	}
	if config.Log.Level != LogLevelError {
		t.Errorf("Expected log level error, got %v", config.Log.Level)
	}
	if config.Supervision.RestartWindow != 30*time.Second {
		t.Errorf("Expected restart window 30s, got %v", config.Supervision.RestartWindow)
	}
}

// TestLoadFromReader tests loading from an io.Reader
func TestLoadFromReader(t *testing.T) {
	loader := NewLoader()

	config, err := loader.LoadFromReader(strings.NewReader(`
app:
  name: reader-app
  environment: testing
`), FormatYAML)
	if err != nil {
		t.Fatalf("Failed to load from reader: %v", err)
	}
	if config.App.Name != "reader-app" {
		t.Errorf("Expected app name 'reader-app', got '%s'", config.App.Name)
	}
	if config.App.Environment != EnvTesting {
		t.Errorf("Expected env testing, got %v", config.App.Environment)
	}
}

// TestAutoLoadDefaults tests auto-load falling back to defaults
func TestAutoLoadDefaults(t *testing.T) {
	loader := NewLoader().SetSearchPaths([]string{t.TempDir()})

	config, err := loader.AutoLoad()
	if err != nil {
		t.Fatalf("Failed to auto-load config: %v", err)
	}
	if config.App.Name != "loom-app" {
		t.Errorf("Expected default app name, got '%s'", config.App.Name)
	}
}

// TestAutoLoad tests automatic configuration discovery
func TestAutoLoad(t *testing.T) {
	tmpDir := t.TempDir()
	loader := NewLoader().SetSearchPaths([]string{tmpDir})

	configContent := `
app:
  name: auto-load-app
  version: "1.0.0"
  environment: development
`

	configFile := filepath.Join(tmpDir, "loom.yaml")
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	config, err := loader.AutoLoad()
	if err != nil {
		t.Fatalf("Failed to auto-load config: %v", err)
	}

	if config.App.Name != "auto-load-app" {
		t.Errorf("Expected app name 'auto-load-app', got '%s'", config.App.Name)
	}
}

// TestWatcher tests configuration file watching
func TestWatcher(t *testing.T) {
	loader := NewLoader()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "watch-test-config.yaml")

	initialContent := `
app:
  name: watch-test-app
  version: "1.0.0"
  environment: development

scheduler:
  throughput: 16
`

	if err := os.WriteFile(configFile, []byte(initialContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	watcher, err := NewWatcher(configFile, loader)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	config := watcher.GetConfig()
	if config.App.Name != "watch-test-app" {
		t.Errorf("Expected initial app name 'watch-test-app', got '%s'", config.App.Name)
	}

	changeDetected := make(chan bool, 1)
	watcher.OnConfigChange(func(oldConfig, newConfig *Config) {
		if newConfig.Scheduler.Throughput == 64 {
			changeDetected <- true
		}
	})

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	updatedContent := `
app:
  name: watch-test-app
  version: "1.0.0"
  environment: development

scheduler:
  throughput: 64
`

	time.Sleep(100 * time.Millisecond) // Small delay before writing
	if err := os.WriteFile(configFile, []byte(updatedContent), 0644); err != nil {
		t.Fatalf("Failed to update config file: %v", err)
	}

	select {
	case <-changeDetected:
		// Success - change was detected
	case <-time.After(3 * time.Second):
		t.Error("Configuration change was not detected within timeout")
	}

	time.Sleep(100 * time.Millisecond) // Small delay for config reload
	updatedConfig := watcher.GetConfig()
	if updatedConfig.Scheduler.Throughput != 64 {
		t.Errorf("Expected updated throughput 64, got %d", updatedConfig.Scheduler.Throughput)
	}
}
