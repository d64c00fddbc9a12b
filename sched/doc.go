// Package sched implements the work-stealing task pool that executes
// actor mailbox slots.
//
// The pool owns a fixed set of worker goroutines, typically one per CPU
// core. Each worker keeps a local Chase-Lev deque: the worker pushes and
// pops at the bottom, idle workers steal from the top. Tasks submitted
// from outside the pool enter a global injection queue that workers drain
// into their local deques.
//
// A Task may return a continuation, which the finishing worker pushes
// onto its own deque. The dispatcher uses this to resubmit an actor whose
// mailbox is still non-empty without crossing the global queue.
//
// Tasks must not block a worker on purpose; a behavior that awaits an
// asynchronous result parks only its goroutine, and the Go runtime hands
// the OS thread to another goroutine.
package sched
