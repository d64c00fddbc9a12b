// Package config provides error definitions for configuration management
package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidAppName          = errors.New("invalid application name")
	ErrInvalidEnvironment      = errors.New("invalid environment")
	ErrInvalidLogLevel         = errors.New("invalid log level")
	ErrInvalidWorkers          = errors.New("invalid worker count")
	ErrInvalidDequeCapacity    = errors.New("invalid deque capacity")
	ErrInvalidThroughput       = errors.New("invalid throughput")
	ErrInvalidMailboxKind      = errors.New("invalid mailbox kind")
	ErrInvalidMailboxSize      = errors.New("invalid mailbox size")
	ErrInvalidStopPolicy       = errors.New("invalid stop policy")
	ErrInvalidRootReaction     = errors.New("invalid root reaction")
	ErrInvalidMaxRestarts      = errors.New("invalid max restarts")
	ErrInvalidDeadLetterBuffer = errors.New("invalid dead letter buffer size")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound = errors.New("configuration file not found")
	ErrConfigParseError   = errors.New("configuration parse error")
	ErrConfigWatchError   = errors.New("configuration watch error")
)
