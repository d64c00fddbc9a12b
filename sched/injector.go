package sched

import (
	"sync"
)

// injector is the global submission queue shared by all workers.
// External senders enqueue here; workers drain batches into their local
// deques so the hot path stays on the deque.
type injector struct {
	mu    sync.Mutex
	tasks []*Task
}

func newInjector() *injector {
	return &injector{}
}

// push appends a task. Safe for any goroutine.
func (q *injector) push(t *Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

// pop removes the oldest task, or returns nil when empty.
func (q *injector) pop() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return t
}

// grab moves up to max-1 tasks into the worker's local deque and returns
// one more for immediate execution. Returns nil when empty.
func (q *injector) grab(d *deque, max int) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil
	}

	n := len(q.tasks)
	if max < 1 {
		max = 1
	}
	if n > max {
		n = max
	}

	first := q.tasks[0]
	for i := 1; i < n; i++ {
		if !d.pushBottom(q.tasks[i]) {
			n = i
			break
		}
	}
	remaining := copy(q.tasks, q.tasks[n:])
	for i := remaining; i < len(q.tasks); i++ {
		q.tasks[i] = nil
	}
	q.tasks = q.tasks[:remaining]
	return first
}

// size returns the number of queued tasks.
func (q *injector) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
