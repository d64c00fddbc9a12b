package core

import (
	"time"
)

// Message is one immutable unit of data addressed to an actor. Kind is
// the tagged-variant discriminator used by routing, dead-letter
// diagnostics and the codec boundary. Implementations must not be
// mutated after sending; the type system cannot enforce that, so large
// payloads should be passed as values or treated as read-only.
type Message interface {
	Kind() string
}

// Prioritized marks messages that a priority mailbox serves before
// ordinary traffic. FIFO order still holds within a priority level.
type Prioritized interface {
	Message
	Priority() int
}

// Envelope pairs a message with its sender for mailbox transit.
type Envelope struct {
	Message Message
	Sender  PID
}

// systemMessage tags runtime-internal messages. They travel at high
// priority through priority mailboxes.
type systemMessage interface {
	Message
	system()
}

// Started is the first message every actor receives, before any user
// message.
type Started struct{}

func (Started) Kind() string  { return "loom.started" }
func (Started) Priority() int { return 1 }
func (Started) system()       {}

// Stopping is delivered to the actor right before termination begins.
// Children are still alive when it arrives.
type Stopping struct{}

func (Stopping) Kind() string  { return "loom.stopping" }
func (Stopping) Priority() int { return 1 }
func (Stopping) system()       {}

// Stopped is delivered as the actor's final message, after its children
// have been asked to stop and its registration is gone.
type Stopped struct{}

func (Stopped) Kind() string  { return "loom.stopped" }
func (Stopped) Priority() int { return 1 }
func (Stopped) system()       {}

// Restarting is delivered to a fresh actor instance installed by a
// Restart directive, in place of Started.
type Restarting struct {
	// Reason is the recovered failure that triggered the restart.
	Reason interface{}
}

func (Restarting) Kind() string  { return "loom.restarting" }
func (Restarting) Priority() int { return 1 }
func (Restarting) system()       {}

// Terminated notifies a watcher that the actor it watched has stopped.
type Terminated struct {
	Who PID
}

func (Terminated) Kind() string { return "loom.terminated" }

// poisonPill ends mailbox draining: everything enqueued before it is
// processed, then the actor terminates.
type poisonPill struct{}

func (poisonPill) Kind() string { return "loom.poison_pill" }
func (poisonPill) system()      {}

// askTimeout expires a pending ask.
type askTimeout struct{}

func (askTimeout) Kind() string  { return "loom.ask_timeout" }
func (askTimeout) Priority() int { return 1 }

// DeadLetter records a message that could not be delivered.
type DeadLetter struct {
	// To is the intended recipient.
	To PID

	// Sender is the original sender, if known.
	Sender PID

	// Message is the undelivered payload.
	Message Message

	// Reason explains why delivery failed.
	Reason string

	// At is the time the dead letter was recorded.
	At time.Time
}

func (DeadLetter) Kind() string { return "loom.dead_letter" }
