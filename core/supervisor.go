package core

import (
	"time"
)

// Directive tells the runtime how to react to an actor failure.
type Directive uint8

const (
	// DirectiveStop terminates the failing actor. This is the default:
	// after an unhandled panic the actor's state is not trusted.
	DirectiveStop Directive = iota

	// DirectiveRestart replaces the actor with a fresh instance from its
	// spawn factory. The mailbox is retained; pending messages survive.
	DirectiveRestart

	// DirectiveResume keeps the current instance and state and moves on
	// to the next message. Only safe when every invariant of the actor's
	// state survives an aborted message; prefer Stop or Restart unless
	// that has been established.
	DirectiveResume

	// DirectiveEscalate defers the decision to the parent's strategy.
	// Escalation past the root applies the system's root reaction.
	DirectiveEscalate
)

// String returns the string representation of Directive.
func (d Directive) String() string {
	switch d {
	case DirectiveStop:
		return "stop"
	case DirectiveRestart:
		return "restart"
	case DirectiveResume:
		return "resume"
	case DirectiveEscalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Decider maps a recovered failure reason to a Directive.
type Decider func(reason interface{}) Directive

// Strategy is the supervision policy applied to an actor when its
// behavior fails. Strategies are pluggable per actor via SpawnOption or
// SetSupervisorStrategy.
type Strategy struct {
	// Decider picks the directive. Defaults to always-Stop.
	Decider Decider

	// MaxRestarts bounds restarts within RestartWindow. When the budget
	// is exhausted the directive degrades from Restart to Stop.
	// Zero means unlimited.
	MaxRestarts int

	// RestartWindow is the sliding window for MaxRestarts.
	// Zero means the budget never resets.
	RestartWindow time.Duration
}

// Decide applies the strategy's decider, falling back to Stop.
func (s Strategy) Decide(reason interface{}) Directive {
	if s.Decider == nil {
		return DirectiveStop
	}
	return s.Decider(reason)
}

// StopStrategy terminates the actor on any failure.
func StopStrategy() Strategy {
	return Strategy{Decider: func(interface{}) Directive { return DirectiveStop }}
}

// RestartStrategy recreates the actor on any failure, up to maxRestarts
// within window.
func RestartStrategy(maxRestarts int, window time.Duration) Strategy {
	return Strategy{
		Decider:       func(interface{}) Directive { return DirectiveRestart },
		MaxRestarts:   maxRestarts,
		RestartWindow: window,
	}
}

// ResumeStrategy keeps the actor's state on any failure. See the
// DirectiveResume caveat.
func ResumeStrategy() Strategy {
	return Strategy{Decider: func(interface{}) Directive { return DirectiveResume }}
}

// EscalateStrategy always defers to the parent's strategy.
func EscalateStrategy() Strategy {
	return Strategy{Decider: func(interface{}) Directive { return DirectiveEscalate }}
}

// Failure describes one unrecovered behavior failure. It is published on
// the system's failure observers and carried by Restarting.
type Failure struct {
	// PID is the failing actor.
	PID PID

	// Reason is the recovered panic value.
	Reason interface{}

	// Message is the message whose processing failed.
	Message Message

	// Stack is the goroutine stack captured at recovery.
	Stack []byte

	// At is the time of failure.
	At time.Time

	// Directive is the decision that was applied.
	Directive Directive
}

// restartTracker enforces restart intensity for one actor.
type restartTracker struct {
	restarts []time.Time
}

// allow records a restart attempt and reports whether the strategy's
// budget permits it.
func (rt *restartTracker) allow(s Strategy, now time.Time) bool {
	if s.MaxRestarts <= 0 {
		return true
	}
	if s.RestartWindow > 0 {
		cutoff := now.Add(-s.RestartWindow)
		kept := rt.restarts[:0]
		for _, at := range rt.restarts {
			if at.After(cutoff) {
				kept = append(kept, at)
			}
		}
		rt.restarts = kept
	}
	if len(rt.restarts) >= s.MaxRestarts {
		return false
	}
	rt.restarts = append(rt.restarts, now)
	return true
}
