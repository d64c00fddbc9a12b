package core

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/weftworks/loom/sched"
)

// Schedule states for the dispatcher. The transition idle -> scheduled
// happens exactly once per batch of pending messages, which is what
// keeps at most one task per actor in flight.
const (
	scheduleIdle int32 = iota
	scheduleBusy
)

// cell is the runtime seat of one actor: its mailbox, dispatch state,
// behavior and supervision bookkeeping. Senders only ever hold the PID;
// the registry owns the cell.
type cell struct {
	pid        PID
	name       string
	parent     *cell
	factory    Factory
	system     *System
	mailbox    Mailbox
	stopPolicy StopPolicy
	throughput int
	spawnedAt  time.Time

	// schedule implements the Idle -> Scheduled -> Running cycle.
	schedule *atomic.Int32
	state    *atomic.Int32
	discard  *atomic.Bool

	// Execution-owned fields, touched only inside a scheduler slot.
	receiver      Receiver
	behaviorStack []Receiver
	stash         []Envelope
	pending       []Envelope
	tracker       restartTracker

	// pendingLen mirrors len(pending) for readers outside the slot.
	pendingLen *atomic.Int32

	// Guarded fields, reachable from other goroutines.
	mu       sync.Mutex
	strategy Strategy
	watchers map[uint64]PID
	children map[uint64]*cell

	processed *atomic.Uint64
	failures  *atomic.Uint64
	restarts  *atomic.Uint64
}

func newCell(system *System, parent *cell, pid PID, name string, factory Factory, opts spawnOptions) *cell {
	return &cell{
		pid:        pid,
		name:       name,
		parent:     parent,
		factory:    factory,
		system:     system,
		mailbox:    newMailbox(opts.mailboxKind, opts.mailboxCapacity),
		stopPolicy: opts.stopPolicy,
		throughput: opts.throughput,
		spawnedAt:  time.Now(),
		schedule:   atomic.NewInt32(scheduleIdle),
		state:      atomic.NewInt32(int32(ActorStateIdle)),
		discard:    atomic.NewBool(false),
		pendingLen: atomic.NewInt32(0),
		receiver:   factory(),
		strategy:   opts.strategy,
		watchers:   make(map[uint64]PID),
		children:   make(map[uint64]*cell),
		processed:  atomic.NewUint64(0),
		failures:   atomic.NewUint64(0),
		restarts:   atomic.NewUint64(0),
	}
}

func (c *cell) currentState() ActorState {
	return ActorState(c.state.Load())
}

func (c *cell) terminated() bool {
	return c.currentState() == ActorStateStopped
}

// deliver enqueues an envelope and wakes the dispatcher. It returns
// ErrActorNotFound for a terminated actor and propagates mailbox
// backpressure.
func (c *cell) deliver(env Envelope) error {
	switch c.currentState() {
	case ActorStateStopped:
		return ErrActorNotFound
	case ActorStateStopping:
		if c.stopPolicy == StopDiscard || c.discard.Load() {
			return ErrActorNotFound
		}
	}

	if err := c.mailbox.Enqueue(env); err != nil {
		return err
	}
	c.dispatch()
	return nil
}

// dispatch submits one task for this actor unless one is already in
// flight. The CAS is the atomic Idle -> Scheduled transition.
func (c *cell) dispatch() {
	if c.schedule.CompareAndSwap(scheduleIdle, scheduleBusy) {
		if err := c.system.pool.Submit(c.slot); err != nil {
			c.schedule.Store(scheduleIdle)
		}
	}
}

// slot is the scheduler task: process one batch, then either hand back a
// continuation or return the actor to idle. The recheck after the idle
// store closes the race with senders that enqueued during the batch.
func (c *cell) slot() sched.Task {
	c.processBatch()

	c.schedule.Store(scheduleIdle)
	if c.hasWork() && c.schedule.CompareAndSwap(scheduleIdle, scheduleBusy) {
		return c.slot
	}
	return nil
}

func (c *cell) hasWork() bool {
	if c.terminated() {
		return false
	}
	if c.discard.Load() {
		return true
	}
	return c.pendingLen.Load() > 0 || c.mailbox.Len() > 0
}

// processBatch runs up to throughput messages. Run-to-completion per
// message: nothing interleaves with a single Receive call.
func (c *cell) processBatch() {
	for i := 0; i < c.throughput; i++ {
		if c.terminated() {
			return
		}
		if c.discard.Load() {
			c.terminate("stopped")
			return
		}

		env, ok := c.nextEnvelope()
		if !ok {
			return
		}

		if _, ok := env.Message.(poisonPill); ok {
			c.terminate("stopped")
			return
		}

		c.state.Store(int32(ActorStateRunning))
		c.invoke(env)
		c.processed.Inc()
		if !c.terminated() && c.currentState() != ActorStateStopping {
			c.state.Store(int32(ActorStateIdle))
		}
		if c.terminated() {
			return
		}
	}
}

// nextEnvelope serves unstashed messages before the mailbox.
func (c *cell) nextEnvelope() (Envelope, bool) {
	if len(c.pending) > 0 {
		env := c.pending[0]
		c.pending[0] = Envelope{}
		c.pending = c.pending[1:]
		c.pendingLen.Dec()
		return env, true
	}
	return c.mailbox.Dequeue()
}

// invoke runs the behavior for one envelope, converting panics into
// supervision decisions.
func (c *cell) invoke(env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.handleFailure(r, env)
		}
	}()

	ctx := &Context{
		system:  c.system,
		cell:    c,
		sender:  env.Sender,
		message: env.Message,
	}
	c.receiver.Receive(ctx)
}

// handleFailure resolves the supervision directive for a recovered panic
// and applies it to this actor. Escalation climbs the parent chain of
// strategies; past the root the system's root reaction decides. All of
// this runs inside the failing actor's own slot, so the single-threaded
// illusion holds throughout.
func (c *cell) handleFailure(reason interface{}, env Envelope) {
	c.failures.Inc()

	failure := Failure{
		PID:     c.pid,
		Reason:  reason,
		Message: env.Message,
		Stack:   debug.Stack(),
		At:      time.Now(),
	}

	strategy, directive := c.resolveDirective(reason)

	if directive == DirectiveRestart && !c.tracker.allow(strategy, time.Now()) {
		c.system.logger.Warnf("actor %s exhausted restart budget, stopping", c.pid)
		directive = DirectiveStop
	}
	failure.Directive = directive

	switch directive {
	case DirectiveResume:
		c.system.logger.Warnf("actor %s resumed after failure: %v", c.pid, reason)
	case DirectiveRestart:
		c.restart(reason)
	default:
		c.system.logger.Errorf("actor %s stopped after failure: %v", c.pid, reason)
		c.terminate(fmt.Sprintf("failure: %v", reason))
	}

	c.system.notifyFailure(failure)
}

// resolveDirective walks the supervision chain until something other
// than Escalate comes back.
func (c *cell) resolveDirective(reason interface{}) (Strategy, Directive) {
	cur := c
	for {
		strategy := cur.strategyLoad()
		directive := strategy.Decide(reason)
		if directive != DirectiveEscalate {
			return strategy, directive
		}
		if cur.parent == nil {
			return strategy, c.system.rootDirective(c.pid, reason)
		}
		cur = cur.parent
	}
}

// restart installs a fresh instance from the factory. The mailbox and
// its pending messages are kept; only state is rebuilt.
func (c *cell) restart(reason interface{}) {
	c.restarts.Inc()
	c.receiver = c.factory()
	c.behaviorStack = nil
	c.stash = nil
	c.system.logger.Infof("actor %s restarted after failure: %v", c.pid, reason)
	c.invokeLifecycle(Restarting{Reason: reason})
}

// requestStop begins termination according to the stop policy. Called
// from any goroutine; the actual teardown happens inside a slot.
func (c *cell) requestStop() {
	switch c.currentState() {
	case ActorStateStopped:
		return
	case ActorStateStopping:
		return
	}
	c.state.Store(int32(ActorStateStopping))

	if c.stopPolicy == StopDiscard {
		c.discard.Store(true)
		c.dispatch()
		return
	}

	// Drain: the pill goes behind everything already enqueued.
	_ = c.mailbox.Enqueue(Envelope{Message: poisonPill{}})
	c.dispatch()
}

// terminate tears the actor down. Runs inside a slot only.
func (c *cell) terminate(reason string) {
	if ActorState(c.state.Swap(int32(ActorStateStopped))) == ActorStateStopped {
		return
	}

	c.invokeLifecycle(Stopping{})

	// Ask the children to stop; they terminate on their own slots.
	c.mu.Lock()
	children := make([]*cell, 0, len(c.children))
	for _, child := range c.children {
		children = append(children, child)
	}
	watchers := make([]PID, 0, len(c.watchers))
	for _, w := range c.watchers {
		watchers = append(watchers, w)
	}
	c.mu.Unlock()
	for _, child := range children {
		child.requestStop()
	}

	c.system.registry.remove(c)

	// Whatever is still queued was never processed; record it.
	c.drainToDeadLetters(reason)

	if c.parent != nil {
		c.parent.removeChild(c.pid)
	}
	for _, w := range watchers {
		c.system.Tell(w, Terminated{Who: c.pid})
	}

	c.invokeLifecycle(Stopped{})
	c.system.actorStopped(c)
}

func (c *cell) drainToDeadLetters(reason string) {
	for _, env := range c.pending {
		if env.Message == nil {
			continue
		}
		c.system.deadLetters.publish(deadLetterNow(c.pid, env.Sender, env.Message, reason))
	}
	c.pending = nil
	c.pendingLen.Store(0)
	// Stashed messages were deferred, never processed; they count too.
	for _, env := range c.stash {
		if env.Message == nil {
			continue
		}
		c.system.deadLetters.publish(deadLetterNow(c.pid, env.Sender, env.Message, reason))
	}
	c.stash = nil
	for {
		env, ok := c.mailbox.Dequeue()
		if !ok {
			return
		}
		if _, pill := env.Message.(poisonPill); pill {
			continue
		}
		c.system.deadLetters.publish(deadLetterNow(c.pid, env.Sender, env.Message, reason))
	}
}

// invokeLifecycle delivers a lifecycle message directly to the receiver.
// A panic during lifecycle handling is logged, not re-supervised.
func (c *cell) invokeLifecycle(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			c.system.logger.Errorf("actor %s panicked in %s handler: %v", c.pid, msg.Kind(), r)
		}
	}()

	ctx := &Context{system: c.system, cell: c, message: msg}
	c.receiver.Receive(ctx)
}

func (c *cell) strategyLoad() Strategy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strategy
}

func (c *cell) setStrategy(s Strategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strategy = s
}

func (c *cell) addChild(child *cell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children[child.pid.id] = child
}

func (c *cell) removeChild(pid PID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.children, pid.id)
}

// addWatcher registers a death watcher. Reports false when the actor is
// already stopped, in which case the caller notifies immediately.
func (c *cell) addWatcher(watcher PID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated() {
		return false
	}
	c.watchers[watcher.id] = watcher
	return true
}

func (c *cell) removeWatcher(watcher PID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.watchers, watcher.id)
}

// stats snapshots the actor's counters.
func (c *cell) stats() ActorStats {
	return ActorStats{
		PID:        c.pid,
		Name:       c.name,
		State:      c.currentState(),
		Processed:  c.processed.Load(),
		Failures:   c.failures.Load(),
		Restarts:   c.restarts.Load(),
		MailboxLen: c.mailbox.Len() + int(c.pendingLen.Load()),
		SpawnedAt:  c.spawnedAt,
	}
}
