// Package future provides a write-once completion latch used by the
// ask pattern and by tests that need to wait for asynchronous effects.
package future

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrTimeout is returned when an await elapses before completion.
var ErrTimeout = errors.New("future: await timed out")

// Future is a disposable write-once latch carrying a value or an error.
// All methods are safe for concurrent use; Complete is idempotent and
// only the first call wins.
type Future struct {
	mu   sync.Mutex
	done chan struct{}

	completed bool
	value     interface{}
	err       error
}

// New returns a new incomplete future.
func New() *Future {
	return &Future{done: make(chan struct{})}
}

// Complete resolves the future with a value. Later calls are ignored.
func (f *Future) Complete(value interface{}) {
	f.complete(value, nil)
}

// Fail resolves the future with an error. Later calls are ignored.
func (f *Future) Fail(err error) {
	f.complete(nil, err)
}

func (f *Future) complete(value interface{}, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.completed {
		return
	}
	f.completed = true
	f.value = value
	f.err = err
	close(f.done)
}

// IsComplete reports whether the future has been resolved, without blocking.
func (f *Future) IsComplete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Done returns a channel that is closed on completion.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future is resolved.
func (f *Future) Await() (interface{}, error) {
	<-f.done
	return f.result()
}

// AwaitUntil blocks until the future is resolved or the timeout elapses.
// A zero timeout never expires.
func (f *Future) AwaitUntil(timeout time.Duration) (interface{}, error) {
	if timeout <= 0 {
		return f.Await()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result()
	case <-timer.C:
		return nil, errors.Wrapf(ErrTimeout, "after %s", timeout)
	}
}

// AndThen invokes fn on its own goroutine once the future resolves.
func (f *Future) AndThen(fn func(interface{}, error)) {
	go func() {
		<-f.done
		fn(f.result())
	}()
}

func (f *Future) result() (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}
