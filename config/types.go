// Package config provides configuration management for the Loom runtime
package config

import (
	"time"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvTesting, EnvStaging, EnvProduction:
		return true
	default:
		return false
	}
}

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// Config represents the complete Loom configuration
type Config struct {
	// Application configuration
	App AppConfig `yaml:"app" json:"app"`

	// Logging configuration
	Log LogConfig `yaml:"log" json:"log"`

	// Scheduler configuration
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`

	// Actor defaults
	Actor ActorConfig `yaml:"actor" json:"actor"`

	// Supervision configuration
	Supervision SupervisionConfig `yaml:"supervision" json:"supervision"`

	// Dead-letter sink configuration
	DeadLetter DeadLetterConfig `yaml:"dead_letter" json:"dead_letter"`

	// Custom configurations (for user-defined services)
	Custom map[string]interface{} `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	// Application name; becomes the actor system name
	Name string `yaml:"name" json:"name"`

	// Application version
	Version string `yaml:"version" json:"version"`

	// Deployment environment
	Environment Environment `yaml:"environment" json:"environment"`

	// Debug mode
	Debug bool `yaml:"debug" json:"debug"`

	// Application metadata
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// Log level
	Level LogLevel `yaml:"level" json:"level"`

	// Log format (json, text)
	Format string `yaml:"format" json:"format"`

	// Output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`
}

// SchedulerConfig contains work-stealing scheduler configuration
type SchedulerConfig struct {
	// Number of worker goroutines; 0 means one per CPU
	Workers int `yaml:"workers" json:"workers"`

	// Per-worker local queue capacity
	DequeCapacity int `yaml:"deque_capacity" json:"deque_capacity"`

	// Messages one actor may process per scheduler slot
	Throughput int `yaml:"throughput" json:"throughput"`
}

// ActorConfig contains per-actor defaults
type ActorConfig struct {
	// Default mailbox strategy (unbounded, bounded, priority)
	MailboxKind string `yaml:"mailbox_kind" json:"mailbox_kind"`

	// Default capacity for bounded mailboxes
	DefaultMailboxSize int `yaml:"default_mailbox_size" json:"default_mailbox_size"`

	// Default stop policy (drain, discard)
	StopPolicy string `yaml:"stop_policy" json:"stop_policy"`

	// Actor system shutdown timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// SupervisionConfig contains supervision defaults
type SupervisionConfig struct {
	// Reaction to failures escalated past the root (log, crash)
	RootReaction string `yaml:"root_reaction" json:"root_reaction"`

	// Restart budget: restarts allowed inside the window
	MaxRestarts int `yaml:"max_restarts" json:"max_restarts"`

	// Restart budget window
	RestartWindow time.Duration `yaml:"restart_window" json:"restart_window"`
}

// DeadLetterConfig contains dead-letter sink configuration
type DeadLetterConfig struct {
	// Number of recent dead letters retained for inspection
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "loom-app",
			Version:     "1.0.0",
			Environment: EnvDevelopment,
			Debug:       true,
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: "text",
			Output: "stdout",
		},
		Scheduler: SchedulerConfig{
			Workers:       0,
			DequeCapacity: 256,
			Throughput:    16,
		},
		Actor: ActorConfig{
			MailboxKind:        "unbounded",
			DefaultMailboxSize: 1024,
			StopPolicy:         "drain",
			ShutdownTimeout:    10 * time.Second,
		},
		Supervision: SupervisionConfig{
			RootReaction:  "log",
			MaxRestarts:   10,
			RestartWindow: time.Minute,
		},
		DeadLetter: DeadLetterConfig{
			BufferSize: 128,
		},
		Custom: make(map[string]interface{}),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return ErrInvalidAppName
	}
	if !c.App.Environment.IsValid() {
		return ErrInvalidEnvironment
	}

	if !c.Log.Level.IsValid() {
		return ErrInvalidLogLevel
	}

	if c.Scheduler.Workers < 0 {
		return ErrInvalidWorkers
	}
	if c.Scheduler.DequeCapacity <= 0 {
		return ErrInvalidDequeCapacity
	}
	if c.Scheduler.Throughput <= 0 {
		return ErrInvalidThroughput
	}

	switch c.Actor.MailboxKind {
	case "unbounded", "bounded", "priority":
	default:
		return ErrInvalidMailboxKind
	}
	if c.Actor.DefaultMailboxSize <= 0 {
		return ErrInvalidMailboxSize
	}
	switch c.Actor.StopPolicy {
	case "drain", "discard":
	default:
		return ErrInvalidStopPolicy
	}

	switch c.Supervision.RootReaction {
	case "log", "crash":
	default:
		return ErrInvalidRootReaction
	}
	if c.Supervision.MaxRestarts < 0 {
		return ErrInvalidMaxRestarts
	}

	if c.DeadLetter.BufferSize <= 0 {
		return ErrInvalidDeadLetterBuffer
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// IsDebugEnabled returns true if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == EnvDevelopment
}
