// Package bootstrap provides application implementation
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/atomic"

	"github.com/weftworks/loom/config"
	"github.com/weftworks/loom/core"
)

// Application assembles a Loom runtime from configuration: it builds the
// actor system, optionally watches the config file for hot reload, and
// drives everything through the lifecycle manager.
type Application struct {
	// cfg holds the application configuration
	cfg *config.Config

	// lifecycle manages service lifecycles
	lifecycle *LifecycleManager

	// logger backs the actor system and honors hot-reloaded log levels
	logger *leveledLogger

	// system is the actor system, available after Start
	system *core.System

	// watcher provides config hot reload when configured from a file
	watcher *config.Watcher

	// mutex protects concurrent access
	mutex sync.RWMutex

	// running indicates if the application is running
	running bool

	// shutdownChan for graceful shutdown
	shutdownChan chan os.Signal
}

// NewApplication creates a new Loom application
func NewApplication() *Application {
	return &Application{
		lifecycle:    NewLifecycleManager(),
		logger:       newLeveledLogger(config.LogLevelInfo),
		shutdownChan: make(chan os.Signal, 1),
	}
}

// Configure configures the application with the provided configuration
func (app *Application) Configure(cfg *config.Config) error {
	app.mutex.Lock()
	defer app.mutex.Unlock()

	if app.running {
		return fmt.Errorf("cannot configure application while running")
	}
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	app.cfg = cfg
	app.logger.setLevel(cfg.Log.Level)

	return app.registerServices()
}

// ConfigureFromFile loads configuration from a file and watches it for
// changes. Reloads adjust the log level at runtime; structural settings
// (workers, mailboxes) apply on next start.
func (app *Application) ConfigureFromFile(path string) error {
	watcher, err := config.NewWatcher(path, config.NewLoader())
	if err != nil {
		return fmt.Errorf("failed to set up config watcher: %w", err)
	}

	if err := app.Configure(watcher.GetConfig()); err != nil {
		watcher.Stop()
		return err
	}

	app.mutex.Lock()
	app.watcher = watcher
	app.mutex.Unlock()

	watcher.OnConfigChange(app.onConfigChange)
	return app.lifecycle.Register("config-watcher", &configWatcherService{watcher: watcher})
}

// registerServices wires the core services into the lifecycle manager.
// Caller holds the mutex.
func (app *Application) registerServices() error {
	deps := []string{}
	if _, ok := app.lifecycle.GetService("config-watcher"); ok {
		deps = append(deps, "config-watcher")
	}
	return app.lifecycle.Register("actor-system", &actorSystemService{app: app}, deps...)
}

// Run runs the application until a shutdown signal or context
// cancellation, then shuts down gracefully.
func (app *Application) Run(ctx context.Context) error {
	app.mutex.Lock()
	if app.running {
		app.mutex.Unlock()
		return fmt.Errorf("application is already running")
	}
	if app.cfg == nil {
		app.mutex.Unlock()
		return fmt.Errorf("application is not configured")
	}
	app.running = true
	app.mutex.Unlock()

	signal.Notify(app.shutdownChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(app.shutdownChan)

	if err := app.lifecycle.Start(ctx); err != nil {
		app.mutex.Lock()
		app.running = false
		app.mutex.Unlock()
		return fmt.Errorf("failed to start services: %w", err)
	}

	select {
	case sig := <-app.shutdownChan:
		app.logger.Infof("received %v, starting graceful shutdown", sig)
	case <-ctx.Done():
		app.logger.Infof("context cancelled, starting graceful shutdown")
	}

	return app.Shutdown(context.Background())
}

// Shutdown shuts down the application gracefully
func (app *Application) Shutdown(ctx context.Context) error {
	app.mutex.Lock()
	if !app.running {
		app.mutex.Unlock()
		return nil
	}
	app.running = false
	timeout := app.cfg.Actor.ShutdownTimeout
	app.mutex.Unlock()

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := app.lifecycle.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop services: %w", err)
	}
	return nil
}

// System returns the actor system. It is nil until Run has started the
// services.
func (app *Application) System() *core.System {
	app.mutex.RLock()
	defer app.mutex.RUnlock()
	return app.system
}

// Lifecycle returns the lifecycle manager
func (app *Application) Lifecycle() *LifecycleManager {
	return app.lifecycle
}

// Config returns the current configuration
func (app *Application) Config() *config.Config {
	app.mutex.RLock()
	defer app.mutex.RUnlock()
	if app.watcher != nil {
		return app.watcher.GetConfig()
	}
	return app.cfg
}

// onConfigChange applies hot-reloadable settings
func (app *Application) onConfigChange(oldCfg, newCfg *config.Config) {
	if oldCfg.Log.Level != newCfg.Log.Level {
		app.logger.setLevel(newCfg.Log.Level)
		app.logger.Infof("log level changed from %s to %s", oldCfg.Log.Level, newCfg.Log.Level)
	}
	app.mutex.Lock()
	app.cfg = newCfg
	system := app.system
	app.mutex.Unlock()
	if system != nil && oldCfg.DeadLetter.BufferSize != newCfg.DeadLetter.BufferSize {
		system.DeadLetters().Resize(newCfg.DeadLetter.BufferSize)
		app.logger.Infof("dead letter buffer resized to %d", newCfg.DeadLetter.BufferSize)
	}
}

// actorSystemService manages the actor system lifecycle
type actorSystemService struct {
	app *Application
}

// Name returns "actor-system"
func (s *actorSystemService) Name() string {
	return "actor-system"
}

// Start creates and starts the actor system from configuration
func (s *actorSystemService) Start(ctx context.Context) error {
	cfg := s.app.Config()

	system, err := core.NewSystem(cfg.App.Name,
		core.WithLogger(s.app.logger),
		core.WithWorkers(cfg.Scheduler.Workers),
		core.WithDequeCapacity(cfg.Scheduler.DequeCapacity),
		core.WithDefaultThroughput(cfg.Scheduler.Throughput),
		core.WithDefaultMailbox(core.MailboxKind(cfg.Actor.MailboxKind), cfg.Actor.DefaultMailboxSize),
		core.WithDefaultStopPolicy(core.StopPolicy(cfg.Actor.StopPolicy)),
		core.WithDefaultStrategy(core.RestartStrategy(cfg.Supervision.MaxRestarts, cfg.Supervision.RestartWindow)),
		core.WithRootReaction(core.RootReaction(cfg.Supervision.RootReaction)),
		core.WithDeadLetterBuffer(cfg.DeadLetter.BufferSize),
	)
	if err != nil {
		return err
	}

	s.app.mutex.Lock()
	s.app.system = system
	s.app.mutex.Unlock()
	return nil
}

// Stop shuts down the actor system
func (s *actorSystemService) Stop(ctx context.Context) error {
	s.app.mutex.RLock()
	system := s.app.system
	s.app.mutex.RUnlock()
	if system == nil {
		return nil
	}
	return system.Shutdown(ctx)
}

// Health reports the actor system state
func (s *actorSystemService) Health(ctx context.Context) (HealthStatus, error) {
	s.app.mutex.RLock()
	system := s.app.system
	s.app.mutex.RUnlock()
	if system == nil {
		return HealthStatus{State: HealthStopped, LastCheck: time.Now()}, nil
	}
	return HealthStatus{
		State:     HealthHealthy,
		LastCheck: time.Now(),
		Data: map[string]interface{}{
			"active_actors": system.ActiveActors(),
			"dead_letters":  system.DeadLetters().Count(),
		},
	}, nil
}

// configWatcherService manages the config hot-reload watcher
type configWatcherService struct {
	watcher *config.Watcher
}

// Name returns "config-watcher"
func (s *configWatcherService) Name() string {
	return "config-watcher"
}

// Start begins watching the config file
func (s *configWatcherService) Start(ctx context.Context) error {
	return s.watcher.Start()
}

// Stop stops the watcher
func (s *configWatcherService) Stop(ctx context.Context) error {
	return s.watcher.Stop()
}

// Health reports the watcher state
func (s *configWatcherService) Health(ctx context.Context) (HealthStatus, error) {
	return HealthStatus{State: HealthHealthy, LastCheck: time.Now()}, nil
}

// Log level ranks for the leveled logger.
const (
	levelDebug int32 = iota
	levelInfo
	levelWarn
	levelError
)

// leveledLogger implements core.Logger with a runtime-adjustable level,
// so config hot reload can change verbosity without restarting.
type leveledLogger struct {
	level *atomic.Int32
}

func newLeveledLogger(level config.LogLevel) *leveledLogger {
	l := &leveledLogger{level: atomic.NewInt32(levelInfo)}
	l.setLevel(level)
	return l
}

func (l *leveledLogger) setLevel(level config.LogLevel) {
	switch level {
	case config.LogLevelDebug:
		l.level.Store(levelDebug)
	case config.LogLevelWarn:
		l.level.Store(levelWarn)
	case config.LogLevelError:
		l.level.Store(levelError)
	default:
		l.level.Store(levelInfo)
	}
}

// Debugf logs at debug level.
func (l *leveledLogger) Debugf(format string, args ...interface{}) {
	if l.level.Load() <= levelDebug {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// Infof logs at info level.
func (l *leveledLogger) Infof(format string, args ...interface{}) {
	if l.level.Load() <= levelInfo {
		log.Printf("[INFO] "+format, args...)
	}
}

// Warnf logs at warn level.
func (l *leveledLogger) Warnf(format string, args ...interface{}) {
	if l.level.Load() <= levelWarn {
		log.Printf("[WARN] "+format, args...)
	}
}

// Errorf logs at error level.
func (l *leveledLogger) Errorf(format string, args ...interface{}) {
	if l.level.Load() <= levelError {
		log.Printf("[ERROR] "+format, args...)
	}
}
