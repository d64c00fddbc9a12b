package core

import (
	stdatomic "sync/atomic"

	"go.uber.org/atomic"
)

// Mailbox buffers undelivered messages for one actor. Implementations
// must be safe for concurrent Enqueue from many senders; Dequeue is only
// ever called by the dispatcher, one slot at a time, so a single-consumer
// design is sufficient. Every strategy preserves FIFO order per
// sender/receiver pair.
type Mailbox interface {
	// Enqueue appends an envelope. Bounded strategies return
	// ErrMailboxFull as a backpressure signal.
	Enqueue(env Envelope) error

	// Dequeue removes the next envelope. Single consumer only.
	Dequeue() (Envelope, bool)

	// Len returns the number of buffered envelopes.
	Len() int
}

// MailboxKind selects a mailbox strategy at spawn time.
type MailboxKind string

const (
	MailboxUnbounded MailboxKind = "unbounded"
	MailboxBounded   MailboxKind = "bounded"
	MailboxPriority  MailboxKind = "priority"
)

// IsValid checks if the mailbox kind is known.
func (k MailboxKind) IsValid() bool {
	switch k {
	case MailboxUnbounded, MailboxBounded, MailboxPriority:
		return true
	default:
		return false
	}
}

// newMailbox builds the mailbox for a spawn.
func newMailbox(kind MailboxKind, capacity int) Mailbox {
	switch kind {
	case MailboxBounded:
		return NewBoundedMailbox(capacity)
	case MailboxPriority:
		return NewPriorityMailbox()
	default:
		return NewUnboundedMailbox()
	}
}

// mnode is a link in the unbounded queue.
type mnode struct {
	next stdatomic.Pointer[mnode]
	env  Envelope
}

// UnboundedMailbox is a lock-free multi-producer single-consumer linked
// queue (Vyukov style). Producers swap the tail pointer and link the
// previous node; the consumer chases next pointers from a stub head.
type UnboundedMailbox struct {
	head   *mnode
	tail   stdatomic.Pointer[mnode]
	length *atomic.Int64
}

// NewUnboundedMailbox returns an empty unbounded FIFO mailbox.
func NewUnboundedMailbox() *UnboundedMailbox {
	stub := &mnode{}
	m := &UnboundedMailbox{
		head:   stub,
		length: atomic.NewInt64(0),
	}
	m.tail.Store(stub)
	return m
}

// Enqueue appends an envelope. Never fails.
func (m *UnboundedMailbox) Enqueue(env Envelope) error {
	n := &mnode{env: env}
	prev := m.tail.Swap(n)
	prev.next.Store(n)
	m.length.Inc()
	return nil
}

// Dequeue removes the oldest envelope. A false return can be transient
// while a producer is mid-link; the dispatcher's post-slot recheck covers
// that window.
func (m *UnboundedMailbox) Dequeue() (Envelope, bool) {
	next := m.head.next.Load()
	if next == nil {
		return Envelope{}, false
	}
	m.head = next
	env := next.env
	next.env = Envelope{}
	m.length.Dec()
	return env, true
}

// Len returns the number of buffered envelopes.
func (m *UnboundedMailbox) Len() int {
	n := m.length.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// BoundedMailbox is a fixed-capacity FIFO mailbox. Enqueue on a full
// mailbox reports backpressure to the sender instead of blocking.
type BoundedMailbox struct {
	buffer chan Envelope
}

// NewBoundedMailbox returns a mailbox holding up to capacity envelopes.
func NewBoundedMailbox(capacity int) *BoundedMailbox {
	if capacity <= 0 {
		capacity = 1
	}
	return &BoundedMailbox{buffer: make(chan Envelope, capacity)}
}

// Enqueue appends an envelope or returns ErrMailboxFull.
func (m *BoundedMailbox) Enqueue(env Envelope) error {
	select {
	case m.buffer <- env:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Dequeue removes the oldest envelope without blocking.
func (m *BoundedMailbox) Dequeue() (Envelope, bool) {
	select {
	case env := <-m.buffer:
		return env, true
	default:
		return Envelope{}, false
	}
}

// Len returns the number of buffered envelopes.
func (m *BoundedMailbox) Len() int {
	return len(m.buffer)
}

// PriorityMailbox serves system and Prioritized messages before ordinary
// traffic. Order within each level stays FIFO.
type PriorityMailbox struct {
	high *UnboundedMailbox
	low  *UnboundedMailbox
}

// NewPriorityMailbox returns an empty two-level priority mailbox.
func NewPriorityMailbox() *PriorityMailbox {
	return &PriorityMailbox{
		high: NewUnboundedMailbox(),
		low:  NewUnboundedMailbox(),
	}
}

// Enqueue routes the envelope to its priority level. Never fails.
func (m *PriorityMailbox) Enqueue(env Envelope) error {
	if isHighPriority(env.Message) {
		return m.high.Enqueue(env)
	}
	return m.low.Enqueue(env)
}

// Dequeue drains the high level before the low one.
func (m *PriorityMailbox) Dequeue() (Envelope, bool) {
	if env, ok := m.high.Dequeue(); ok {
		return env, true
	}
	return m.low.Dequeue()
}

// Len returns the number of buffered envelopes across both levels.
func (m *PriorityMailbox) Len() int {
	return m.high.Len() + m.low.Len()
}

func isHighPriority(msg Message) bool {
	if _, ok := msg.(systemMessage); ok {
		return true
	}
	if p, ok := msg.(Prioritized); ok {
		return p.Priority() > 0
	}
	return false
}
