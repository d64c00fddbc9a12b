package core

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// DeadLetterQueue is the system-wide sink for undeliverable messages:
// sends to unknown or terminated actors, and mailbox contents discarded
// at stop. It keeps a bounded ring of recent entries for inspection and
// fans entries out to subscribers without ever blocking a sender.
type DeadLetterQueue struct {
	mu     sync.RWMutex
	ring   []DeadLetter
	next   int
	filled bool
	subs   map[chan<- DeadLetter]struct{}

	total   *atomic.Uint64
	dropped *atomic.Uint64

	logger Logger
}

// newDeadLetterQueue creates a sink retaining the last size entries.
func newDeadLetterQueue(size int, logger Logger) *DeadLetterQueue {
	if size <= 0 {
		size = 128
	}
	return &DeadLetterQueue{
		ring:    make([]DeadLetter, size),
		subs:    make(map[chan<- DeadLetter]struct{}),
		total:   atomic.NewUint64(0),
		dropped: atomic.NewUint64(0),
		logger:  logger,
	}
}

// publish records a dead letter and notifies subscribers. A subscriber
// whose channel is full misses the entry; the dropped counter records it.
func (q *DeadLetterQueue) publish(dl DeadLetter) {
	q.total.Inc()

	q.mu.Lock()
	q.ring[q.next] = dl
	q.next = (q.next + 1) % len(q.ring)
	if q.next == 0 {
		q.filled = true
	}
	subs := make([]chan<- DeadLetter, 0, len(q.subs))
	for ch := range q.subs {
		subs = append(subs, ch)
	}
	q.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- dl:
		default:
			q.dropped.Inc()
		}
	}

	q.logger.Debugf("dead letter: %s to %s (%s)", dl.Message.Kind(), dl.To, dl.Reason)
}

// Subscribe registers a channel to receive future dead letters. The
// channel should be buffered; delivery never blocks.
func (q *DeadLetterQueue) Subscribe(ch chan<- DeadLetter) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subs[ch] = struct{}{}
}

// Unsubscribe removes a previously subscribed channel.
func (q *DeadLetterQueue) Unsubscribe(ch chan<- DeadLetter) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.subs, ch)
}

// Recent returns the retained entries, oldest first.
func (q *DeadLetterQueue) Recent() []DeadLetter {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.filled {
		out := make([]DeadLetter, q.next)
		copy(out, q.ring[:q.next])
		return out
	}
	out := make([]DeadLetter, 0, len(q.ring))
	out = append(out, q.ring[q.next:]...)
	out = append(out, q.ring[:q.next]...)
	return out
}

// Resize replaces the retention ring, keeping the most recent entries
// that fit. Counters and subscriptions are unaffected.
func (q *DeadLetterQueue) Resize(size int) {
	if size <= 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var kept []DeadLetter
	if !q.filled {
		kept = q.ring[:q.next]
	} else {
		kept = append(kept, q.ring[q.next:]...)
		kept = append(kept, q.ring[:q.next]...)
	}
	if len(kept) > size {
		kept = kept[len(kept)-size:]
	}

	ring := make([]DeadLetter, size)
	copy(ring, kept)
	q.ring = ring
	q.next = len(kept) % size
	q.filled = len(kept) == size
}

// Count returns the total number of dead letters recorded.
func (q *DeadLetterQueue) Count() uint64 {
	return q.total.Load()
}

func deadLetterNow(to, sender PID, msg Message, reason string) DeadLetter {
	return DeadLetter{
		To:      to,
		Sender:  sender,
		Message: msg,
		Reason:  reason,
		At:      time.Now(),
	}
}
