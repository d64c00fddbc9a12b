package core

import (
	"time"
)

// Receiver is the behavior of an actor: it consumes one message at a
// time through the Context. The runtime treats the whole Receive call as
// a critical section; no other message for the same actor is processed
// until it returns. State kept on the Receiver is therefore free of
// locks, as long as it never escapes the actor.
type Receiver interface {
	Receive(ctx *Context)
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc func(ctx *Context)

// Receive implements Receiver.
func (f ReceiverFunc) Receive(ctx *Context) {
	f(ctx)
}

// Factory produces a fresh Receiver instance. The system takes a factory
// rather than an instance so that no reference to the underlying actor
// leaks to the spawner, and so a Restart directive can rebuild pristine
// state.
type Factory func() Receiver

// ActorState represents the current state of an actor.
type ActorState int32

const (
	// ActorStateIdle means the actor is waiting for messages.
	ActorStateIdle ActorState = iota

	// ActorStateRunning means the actor is processing a message.
	ActorStateRunning

	// ActorStateStopping means the actor is shutting down.
	ActorStateStopping

	// ActorStateStopped means the actor has terminated.
	ActorStateStopped
)

// String returns the string representation of ActorState.
func (s ActorState) String() string {
	switch s {
	case ActorStateIdle:
		return "idle"
	case ActorStateRunning:
		return "running"
	case ActorStateStopping:
		return "stopping"
	case ActorStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopPolicy controls what happens to messages still in the mailbox when
// an actor is stopped.
type StopPolicy string

const (
	// StopDrain processes everything already enqueued, then terminates.
	StopDrain StopPolicy = "drain"

	// StopDiscard terminates immediately; queued messages are routed to
	// the dead-letter sink without being processed.
	StopDiscard StopPolicy = "discard"
)

// IsValid checks if the stop policy is known.
func (p StopPolicy) IsValid() bool {
	return p == StopDrain || p == StopDiscard
}

// SpawnOption customizes one actor at spawn time.
type SpawnOption func(*spawnOptions)

type spawnOptions struct {
	mailboxKind     MailboxKind
	mailboxCapacity int
	strategy        Strategy
	strategySet     bool
	stopPolicy      StopPolicy
	throughput      int
}

// WithMailbox selects the mailbox strategy. capacity only applies to
// MailboxBounded.
func WithMailbox(kind MailboxKind, capacity int) SpawnOption {
	return func(o *spawnOptions) {
		o.mailboxKind = kind
		o.mailboxCapacity = capacity
	}
}

// WithStrategy sets the supervision strategy applied when this actor
// fails.
func WithStrategy(s Strategy) SpawnOption {
	return func(o *spawnOptions) {
		o.strategy = s
		o.strategySet = true
	}
}

// WithStopPolicy overrides the system default stop policy.
func WithStopPolicy(p StopPolicy) SpawnOption {
	return func(o *spawnOptions) {
		o.stopPolicy = p
	}
}

// WithThroughput overrides how many messages one scheduler slot may
// process before the actor is resubmitted for fairness.
func WithThroughput(n int) SpawnOption {
	return func(o *spawnOptions) {
		o.throughput = n
	}
}

// ActorStats contains runtime statistics for one actor.
type ActorStats struct {
	// PID of the actor.
	PID PID

	// Name of the actor.
	Name string

	// Current state.
	State ActorState

	// Total messages processed.
	Processed uint64

	// Total failures recovered from.
	Failures uint64

	// Total restarts performed.
	Restarts uint64

	// Messages currently in the mailbox.
	MailboxLen int

	// Time the actor was spawned.
	SpawnedAt time.Time
}
