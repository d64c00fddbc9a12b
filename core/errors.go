package core

import (
	"github.com/pkg/errors"
)

var (
	// ErrActorNotFound is returned when a PID does not resolve to a live
	// actor. Tell never returns it; undeliverable sends go to dead letters.
	ErrActorNotFound = errors.New("core: actor not found")

	// ErrNameTaken is returned by Spawn when the requested name is in use.
	ErrNameTaken = errors.New("core: actor name already taken")

	// ErrSystemShutdown is returned once the system has begun shutting down.
	ErrSystemShutdown = errors.New("core: actor system is shut down")

	// ErrMailboxFull is the backpressure signal from a bounded mailbox.
	// It is distinct from a delivery error: the actor is alive but slow.
	ErrMailboxFull = errors.New("core: mailbox is full")

	// ErrAskTimeout is returned when an ask receives no reply in time.
	ErrAskTimeout = errors.New("core: ask timed out")

	// ErrInvalidPID is returned for the zero PID.
	ErrInvalidPID = errors.New("core: invalid pid")
)
