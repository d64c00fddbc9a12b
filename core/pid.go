package core

import (
	"context"
	"fmt"
	"time"
)

// PID identifies an actor. It is an opaque, copyable handle: senders hold
// a PID, never a pointer into actor memory, and every delivery resolves
// the PID through the system registry. A PID stays comparable and valid
// for the actor's lifetime; sends to a terminated actor are routed to the
// dead-letter stream.
type PID struct {
	id   uint64
	path string
	sys  *System
}

// ID returns the process-local numeric identity.
func (p PID) ID() uint64 {
	return p.id
}

// Path returns the hierarchical address, e.g. "loom://demo-3f2a/user/counter".
func (p PID) Path() string {
	return p.path
}

// Valid reports whether the PID refers to an actor at all. A valid PID may
// still point at a terminated actor.
func (p PID) Valid() bool {
	return p.id != 0 && p.sys != nil
}

// Equal reports whether two PIDs address the same actor incarnation.
func (p PID) Equal(other PID) bool {
	return p.id == other.id && p.path == other.path
}

// String implements fmt.Stringer.
func (p PID) String() string {
	if !p.Valid() {
		return "pid:<invalid>"
	}
	return fmt.Sprintf("%s#%d", p.path, p.id)
}

// Tell sends a fire-and-forget message to this actor.
func (p PID) Tell(msg Message) {
	if p.sys != nil {
		p.sys.Tell(p, msg)
	}
}

// Ask sends msg and waits for the reply, up to timeout.
func (p PID) Ask(ctx context.Context, msg Message, timeout time.Duration) (Message, error) {
	if p.sys == nil {
		return nil, ErrInvalidPID
	}
	return p.sys.Ask(ctx, p, msg, timeout)
}
