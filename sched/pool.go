package sched

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Task is one unit of scheduler work: run an actor's next mailbox slot.
// The returned continuation, if any, is pushed onto the finishing
// worker's local deque instead of the global queue.
type Task func() Task

// ErrPoolStopped is returned by Submit after Shutdown has begun.
var ErrPoolStopped = errors.New("sched: pool is stopped")

// Options configures a Pool.
type Options struct {
	// Workers is the number of worker goroutines. Defaults to the CPU count.
	Workers int

	// DequeCapacity bounds each worker's local deque. Overflow spills to
	// the global injection queue. Defaults to 256.
	DequeCapacity int

	// PanicHandler receives panics that escape a task. The dispatcher
	// recovers behavior panics itself, so this only fires on runtime bugs.
	PanicHandler func(recovered interface{})
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.DequeCapacity <= 0 {
		o.DequeCapacity = 256
	}
	return o
}

// PoolStats contains runtime counters for a Pool.
type PoolStats struct {
	Workers   int
	Submitted uint64
	Completed uint64
	Stolen    uint64
	Queued    int
}

// Pool executes Tasks on a fixed set of workers with work stealing.
type Pool struct {
	opts    Options
	global  *injector
	workers []*worker

	// notify carries wakeup tokens for parked workers; capacity equals
	// the worker count so a submit can always wake the whole pool.
	notify chan struct{}
	done   chan struct{}

	wg        sync.WaitGroup
	started   atomic.Bool
	stopped   atomic.Bool
	stopOnce  sync.Once
	submitted atomic.Uint64
	completed atomic.Uint64
	stolen    atomic.Uint64
}

type worker struct {
	id    int
	pool  *Pool
	local *deque
	rng   *rand.Rand
}

// NewPool creates a pool. Call Start before submitting.
func NewPool(opts Options) *Pool {
	opts = opts.withDefaults()

	p := &Pool{
		opts:   opts,
		global: newInjector(),
		notify: make(chan struct{}, opts.Workers),
		done:   make(chan struct{}),
	}
	p.workers = make([]*worker, opts.Workers)
	for i := range p.workers {
		p.workers[i] = &worker{
			id:    i,
			pool:  p,
			local: newDeque(opts.DequeCapacity),
			rng:   rand.New(rand.NewSource(int64(i + 1))),
		}
	}
	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return errors.New("sched: pool already started")
	}

	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go w.run()
	}
	return nil
}

// Submit enqueues a task for execution. Safe for any goroutine.
func (p *Pool) Submit(t Task) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}

	p.submitted.Inc()
	p.global.push(&t)
	p.signal()
	return nil
}

// Shutdown stops the pool. Running tasks finish; queued tasks that have
// not started are abandoned. Idempotent and safe from any goroutine.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.done)
	})

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "sched: shutdown did not complete")
	}
}

// Stats returns current pool counters.
func (p *Pool) Stats() PoolStats {
	queued := p.global.size()
	for _, w := range p.workers {
		queued += w.local.size()
	}
	return PoolStats{
		Workers:   len(p.workers),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Stolen:    p.stolen.Load(),
		Queued:    queued,
	}
}

func (p *Pool) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (w *worker) run() {
	p := w.pool
	defer p.wg.Done()

	for {
		if p.stopped.Load() {
			return
		}

		t := w.find()
		if t == nil {
			select {
			case <-p.notify:
				continue
			case <-p.done:
				return
			}
		}
		w.execute(t)
	}
}

// find looks for work: local deque first, then a batch from the global
// queue, then a steal sweep over the other workers.
func (w *worker) find() *Task {
	if t := w.local.popBottom(); t != nil {
		return t
	}
	if t := w.pool.global.grab(w.local, w.pool.opts.DequeCapacity/2); t != nil {
		return t
	}

	n := len(w.pool.workers)
	start := w.rng.Intn(n)
	for i := 0; i < n; i++ {
		victim := w.pool.workers[(start+i)%n]
		if victim == w {
			continue
		}
		if t := victim.local.steal(); t != nil {
			w.pool.stolen.Inc()
			return t
		}
	}
	return nil
}

// execute runs a task and chases its continuations on the local deque.
func (w *worker) execute(t *Task) {
	for t != nil {
		next := w.runOne(t)
		w.pool.completed.Inc()
		if next == nil {
			return
		}

		cont := next
		if !w.local.pushBottom(&cont) {
			w.pool.global.push(&cont)
			w.pool.signal()
			return
		}
		// Usually pops the continuation straight back; a thief may have
		// taken it, in which case the outer loop resumes searching.
		t = w.local.popBottom()
	}
}

func (w *worker) runOne(t *Task) (next Task) {
	defer func() {
		if r := recover(); r != nil {
			if h := w.pool.opts.PanicHandler; h != nil {
				h(r)
			}
			next = nil
		}
	}()
	return (*t)()
}
