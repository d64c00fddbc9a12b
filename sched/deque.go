package sched

import (
	"sync/atomic"
)

// deque is a fixed-capacity Chase-Lev work-stealing deque.
//
// The owning worker pushes and pops at the bottom; any other worker may
// steal from the top. Only popBottom and steal can race on the last
// remaining element, which both sides resolve with a CAS on top.
type deque struct {
	top    atomic.Int64
	bottom atomic.Int64
	mask   int64
	buf    []atomic.Pointer[Task]
}

// newDeque returns a deque holding up to capacity tasks.
// capacity is rounded up to the next power of two.
func newDeque(capacity int) *deque {
	size := int64(1)
	for size < int64(capacity) {
		size <<= 1
	}
	return &deque{
		mask: size - 1,
		buf:  make([]atomic.Pointer[Task], size),
	}
}

// pushBottom appends a task at the bottom. Owner only.
// It reports false when the deque is full; the caller spills to the
// global injection queue.
func (d *deque) pushBottom(t *Task) bool {
	b := d.bottom.Load()
	top := d.top.Load()
	if b-top >= int64(len(d.buf)) {
		return false
	}
	d.buf[b&d.mask].Store(t)
	d.bottom.Store(b + 1)
	return true
}

// popBottom removes the most recently pushed task. Owner only.
func (d *deque) popBottom() *Task {
	b := d.bottom.Load() - 1
	d.bottom.Store(b)

	top := d.top.Load()
	if top > b {
		// Deque was empty; restore bottom.
		d.bottom.Store(top)
		return nil
	}

	t := d.buf[b&d.mask].Load()
	if top == b {
		// Last element, race against stealers for it.
		if !d.top.CompareAndSwap(top, top+1) {
			t = nil
		}
		d.bottom.Store(top + 1)
	}
	return t
}

// steal removes the oldest task on behalf of another worker.
// A nil return means the deque was empty or the steal lost a race;
// callers treat both as a miss and move on to the next victim.
func (d *deque) steal() *Task {
	top := d.top.Load()
	b := d.bottom.Load()
	if top >= b {
		return nil
	}

	t := d.buf[top&d.mask].Load()
	if !d.top.CompareAndSwap(top, top+1) {
		return nil
	}
	return t
}

// size returns the approximate number of queued tasks.
func (d *deque) size() int {
	b := d.bottom.Load()
	top := d.top.Load()
	if b < top {
		return 0
	}
	return int(b - top)
}
