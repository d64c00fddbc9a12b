package core

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/weftworks/loom/future"
	"github.com/weftworks/loom/sched"
)

// RootReaction is the system's response to a failure escalated past the
// top of the supervision tree.
type RootReaction string

const (
	// RootLog logs the failure and stops the failing actor.
	RootLog RootReaction = "log"

	// RootCrash crashes the process. Opt-in for deployments that prefer
	// a supervisor outside the process (systemd, k8s) to restart it.
	RootCrash RootReaction = "crash"
)

// IsValid checks if the root reaction is known.
func (r RootReaction) IsValid() bool {
	return r == RootLog || r == RootCrash
}

// SystemOption configures a System at construction.
type SystemOption func(*systemOptions)

type systemOptions struct {
	workers          int
	dequeCapacity    int
	throughput       int
	mailboxKind      MailboxKind
	mailboxCapacity  int
	stopPolicy       StopPolicy
	strategy         *Strategy
	rootReaction     RootReaction
	deadLetterBuffer int
	logger           Logger
	failureHook      func(Failure)
}

// WithWorkers sets the scheduler worker count. Defaults to the CPU count.
func WithWorkers(n int) SystemOption {
	return func(o *systemOptions) { o.workers = n }
}

// WithDequeCapacity sets each worker's local deque capacity.
func WithDequeCapacity(n int) SystemOption {
	return func(o *systemOptions) { o.dequeCapacity = n }
}

// WithDefaultThroughput sets how many messages one scheduler slot may
// process per actor before resubmitting.
func WithDefaultThroughput(n int) SystemOption {
	return func(o *systemOptions) { o.throughput = n }
}

// WithDefaultMailbox sets the mailbox strategy for actors that do not
// override it at spawn.
func WithDefaultMailbox(kind MailboxKind, capacity int) SystemOption {
	return func(o *systemOptions) {
		o.mailboxKind = kind
		o.mailboxCapacity = capacity
	}
}

// WithDefaultStopPolicy sets the default for Stop: drain or discard.
func WithDefaultStopPolicy(p StopPolicy) SystemOption {
	return func(o *systemOptions) { o.stopPolicy = p }
}

// WithDefaultStrategy sets the supervision strategy applied to actors
// that do not override it at spawn. Defaults to StopStrategy.
func WithDefaultStrategy(s Strategy) SystemOption {
	return func(o *systemOptions) { o.strategy = &s }
}

// WithRootReaction sets the reaction to failures escalated past the root.
func WithRootReaction(r RootReaction) SystemOption {
	return func(o *systemOptions) { o.rootReaction = r }
}

// WithDeadLetterBuffer sets how many recent dead letters are retained.
func WithDeadLetterBuffer(n int) SystemOption {
	return func(o *systemOptions) { o.deadLetterBuffer = n }
}

// WithLogger injects the system logger.
func WithLogger(l Logger) SystemOption {
	return func(o *systemOptions) { o.logger = l }
}

// WithFailureHook registers a callback invoked after every supervision
// decision. It runs on the failing actor's scheduler slot; keep it cheap.
func WithFailureHook(hook func(Failure)) SystemOption {
	return func(o *systemOptions) { o.failureHook = hook }
}

func (o systemOptions) withDefaults() systemOptions {
	if o.workers <= 0 {
		o.workers = runtime.NumCPU()
	}
	if o.dequeCapacity <= 0 {
		o.dequeCapacity = 256
	}
	if o.throughput <= 0 {
		o.throughput = 16
	}
	if !o.mailboxKind.IsValid() {
		o.mailboxKind = MailboxUnbounded
	}
	if o.mailboxCapacity <= 0 {
		o.mailboxCapacity = 1024
	}
	if !o.stopPolicy.IsValid() {
		o.stopPolicy = StopDrain
	}
	if o.strategy == nil {
		def := StopStrategy()
		o.strategy = &def
	}
	if !o.rootReaction.IsValid() {
		o.rootReaction = RootLog
	}
	if o.deadLetterBuffer <= 0 {
		o.deadLetterBuffer = 128
	}
	if o.logger == nil {
		o.logger = NewStdLogger(false)
	}
	return o
}

// System is the process-wide actor runtime root: it allocates
// addresses, owns the registry and scheduler, and is the only singleton
// in a program using the runtime. Its lifecycle is explicit: NewSystem
// then Shutdown; nothing is ambient.
type System struct {
	name     string
	instance string

	logger      Logger
	pool        *sched.Pool
	registry    *registry
	deadLetters *DeadLetterQueue

	ctx    context.Context
	cancel context.CancelFunc

	defaults     spawnOptions
	rootReaction RootReaction
	failureHook  func(Failure)

	actors       sync.WaitGroup
	stopped      *atomic.Bool
	shutdownOnce sync.Once
}

// NewSystem creates and starts an actor system.
func NewSystem(name string, opts ...SystemOption) (*System, error) {
	if name == "" {
		return nil, errors.New("core: system name cannot be empty")
	}

	o := systemOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	o = o.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())

	s := &System{
		name:     name,
		instance: fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		logger:   o.logger,
		registry: newRegistry(),
		ctx:      ctx,
		cancel:   cancel,
		defaults: spawnOptions{
			mailboxKind:     o.mailboxKind,
			mailboxCapacity: o.mailboxCapacity,
			strategy:        *o.strategy,
			stopPolicy:      o.stopPolicy,
			throughput:      o.throughput,
		},
		rootReaction: o.rootReaction,
		failureHook:  o.failureHook,
		stopped:      atomic.NewBool(false),
	}
	s.deadLetters = newDeadLetterQueue(o.deadLetterBuffer, o.logger)
	s.pool = sched.NewPool(sched.Options{
		Workers:       o.workers,
		DequeCapacity: o.dequeCapacity,
		PanicHandler: func(r interface{}) {
			o.logger.Errorf("panic escaped a scheduler task: %v", r)
		},
	})

	if err := s.pool.Start(); err != nil {
		cancel()
		return nil, errors.Wrap(err, "core: failed to start scheduler")
	}

	s.logger.Infof("actor system %s started with %d workers", s.instance, o.workers)
	return s, nil
}

// Name returns the system name.
func (s *System) Name() string {
	return s.name
}

// Spawn creates a top-level actor supervised by the system root. The
// returned PID is usable immediately; Spawn never waits for the actor's
// first execution.
func (s *System) Spawn(name string, factory Factory, opts ...SpawnOption) (PID, error) {
	return s.spawn(nil, name, factory, opts...)
}

func (s *System) spawn(parent *cell, name string, factory Factory, opts ...SpawnOption) (pid PID, err error) {
	if factory == nil {
		return PID{}, errors.New("core: spawn requires a factory")
	}
	if s.stopped.Load() {
		return PID{}, ErrSystemShutdown
	}

	o := s.defaults
	for _, opt := range opts {
		opt(&o)
	}

	id := s.registry.nextID()
	if name == "" {
		name = fmt.Sprintf("actor-%d", id)
	}

	var path string
	if parent == nil {
		path = fmt.Sprintf("loom://%s/user/%s", s.instance, name)
	} else {
		path = parent.pid.path + "/" + name
	}
	pid = PID{id: id, path: path, sys: s}

	if !s.registry.claimName(path, pid) {
		return PID{}, errors.Wrap(ErrNameTaken, path)
	}

	// The factory runs here so a panicking constructor surfaces as a
	// spawn error rather than a supervision case.
	defer func() {
		if r := recover(); r != nil {
			s.registry.releaseName(pid)
			err = errors.Errorf("core: actor factory panicked: %v", r)
			pid = PID{}
		}
	}()
	c := newCell(s, parent, pid, name, factory, o)

	s.registry.insert(c)
	if parent != nil {
		parent.addChild(c)
	}
	s.actors.Add(1)

	_ = c.mailbox.Enqueue(Envelope{Message: Started{}})
	c.dispatch()

	return pid, nil
}

// Tell sends a fire-and-forget message. It never blocks and never
// returns an error: undeliverable messages, including those refused by a
// full bounded mailbox, go to the dead-letter sink. Use Offer when the
// sender wants the backpressure signal.
func (s *System) Tell(to PID, msg Message) {
	s.tellFrom(PID{}, to, msg)
}

// Offer sends like Tell but reports delivery problems to the caller:
// ErrMailboxFull is backpressure (the actor is alive but slow), while
// ErrActorNotFound means the target is gone and the message went to dead
// letters.
func (s *System) Offer(to PID, msg Message) error {
	if msg == nil {
		return errors.New("core: cannot send nil message")
	}
	if !to.Valid() {
		return ErrInvalidPID
	}

	c, ok := s.registry.get(to)
	if !ok {
		s.deadLetters.publish(deadLetterNow(to, PID{}, msg, "actor not found"))
		return ErrActorNotFound
	}

	err := c.deliver(Envelope{Message: msg})
	if errors.Is(err, ErrActorNotFound) {
		s.deadLetters.publish(deadLetterNow(to, PID{}, msg, "actor stopped"))
	}
	return err
}

func (s *System) tellFrom(from, to PID, msg Message) {
	if msg == nil {
		return
	}
	if !to.Valid() {
		s.deadLetters.publish(deadLetterNow(to, from, msg, "invalid pid"))
		return
	}

	c, ok := s.registry.get(to)
	if !ok {
		s.deadLetters.publish(deadLetterNow(to, from, msg, "actor not found"))
		return
	}

	switch err := c.deliver(Envelope{Message: msg, Sender: from}); {
	case err == nil:
	case errors.Is(err, ErrMailboxFull):
		s.deadLetters.publish(deadLetterNow(to, from, msg, "mailbox full"))
	default:
		s.deadLetters.publish(deadLetterNow(to, from, msg, "actor stopped"))
	}
}

// Ask sends msg and waits for one reply, delivered through a transient
// proxy actor that the target replies to. The timeout is a scheduled
// message, never an interruption of the target.
func (s *System) Ask(ctx context.Context, to PID, msg Message, timeout time.Duration) (Message, error) {
	if s.stopped.Load() {
		return nil, ErrSystemShutdown
	}

	f := future.New()
	proxy, err := s.spawn(nil, "", func() Receiver {
		return ReceiverFunc(func(c *Context) {
			switch c.Message().(type) {
			case Started, Stopping, Stopped:
			case askTimeout:
				f.Fail(ErrAskTimeout)
				c.StopSelf()
			default:
				f.Complete(c.Message())
				c.StopSelf()
			}
		})
	})
	if err != nil {
		return nil, err
	}

	s.tellFrom(proxy, to, msg)

	if timeout > 0 {
		cancel := s.ScheduleTell(timeout, proxy, askTimeout{})
		defer cancel()
	}

	select {
	case <-f.Done():
		v, ferr := f.Await()
		if ferr != nil {
			return nil, ferr
		}
		return v.(Message), nil
	case <-ctx.Done():
		s.Stop(proxy)
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, ErrSystemShutdown
	}
}

// Stop requests graceful termination of an actor. The mailbox is drained
// or discarded according to the actor's stop policy; messages never
// processed go to dead letters. Stopping an unknown actor is a no-op.
func (s *System) Stop(pid PID) {
	if c, ok := s.registry.get(pid); ok {
		c.requestStop()
	}
}

// SetSupervisorStrategy replaces the supervision strategy applied to an
// actor when it fails.
func (s *System) SetSupervisorStrategy(pid PID, strategy Strategy) error {
	c, ok := s.registry.get(pid)
	if !ok {
		return ErrActorNotFound
	}
	c.setStrategy(strategy)
	return nil
}

// Lookup resolves a full actor path to a PID.
func (s *System) Lookup(path string) (PID, bool) {
	return s.registry.lookupName(path)
}

// ScheduleTell sends msg to pid after delay. The returned cancel stops
// an undelivered timer; cancelling after delivery is a no-op.
func (s *System) ScheduleTell(delay time.Duration, pid PID, msg Message) (cancel func()) {
	t := time.AfterFunc(delay, func() {
		s.Tell(pid, msg)
	})
	return func() { t.Stop() }
}

// DeadLetters returns the system's dead-letter sink.
func (s *System) DeadLetters() *DeadLetterQueue {
	return s.deadLetters
}

// ActiveActors returns the number of live actors.
func (s *System) ActiveActors() int {
	return s.registry.count()
}

// Stats returns statistics for every live actor.
func (s *System) Stats() []ActorStats {
	out := make([]ActorStats, 0, s.registry.count())
	s.registry.each(func(c *cell) {
		out = append(out, c.stats())
	})
	return out
}

// SchedulerStats returns the scheduler pool counters.
func (s *System) SchedulerStats() sched.PoolStats {
	return s.pool.Stats()
}

// Shutdown stops every actor, then the scheduler. It is idempotent and
// safe to call from any goroutine; only the first call performs the
// work.
func (s *System) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopped.Store(true)
		s.logger.Infof("actor system %s shutting down", s.instance)

		s.registry.each(func(c *cell) {
			c.requestStop()
		})

		done := make(chan struct{})
		go func() {
			s.actors.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "core: actors did not stop in time")
		}

		s.cancel()
		if perr := s.pool.Shutdown(ctx); perr != nil && err == nil {
			err = perr
		}
	})
	return err
}

func (s *System) actorStopped(c *cell) {
	s.actors.Done()
}

func (s *System) watch(target, watcher PID) {
	c, ok := s.registry.get(target)
	if !ok || !c.addWatcher(watcher) {
		s.Tell(watcher, Terminated{Who: target})
	}
}

func (s *System) unwatch(target, watcher PID) {
	if c, ok := s.registry.get(target); ok {
		c.removeWatcher(watcher)
	}
}

func (s *System) notifyFailure(f Failure) {
	if s.failureHook != nil {
		s.failureHook(f)
	}
}

// rootDirective is the decision for failures escalated past the root of
// the supervision tree.
func (s *System) rootDirective(pid PID, reason interface{}) Directive {
	if s.rootReaction == RootCrash {
		s.logger.Errorf("failure escalated to root by %s: %v; crashing as configured", pid, reason)
		go func() {
			panic(fmt.Sprintf("core: unhandled escalated failure from %s: %v", pid, reason))
		}()
		return DirectiveStop
	}
	s.logger.Errorf("failure escalated to root by %s: %v; stopping actor", pid, reason)
	return DirectiveStop
}
