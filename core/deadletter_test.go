package core

import (
	"testing"
)

func publishN(q *DeadLetterQueue, n int) {
	for i := 0; i < n; i++ {
		q.publish(deadLetterNow(PID{}, PID{}, seqMsg{seq: i}, "test"))
	}
}

func TestDeadLetterQueueRecent(t *testing.T) {
	q := newDeadLetterQueue(4, NewNopLogger())

	publishN(q, 3)
	recent := q.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	for i, dl := range recent {
		if dl.Message.(seqMsg).seq != i {
			t.Errorf("entry %d out of order: %v", i, dl.Message)
		}
	}

	publishN(q, 3)
	recent = q.Recent()
	if len(recent) != 4 {
		t.Fatalf("expected ring capacity 4, got %d", len(recent))
	}
	if q.Count() != 6 {
		t.Errorf("expected total 6, got %d", q.Count())
	}
}

func TestDeadLetterQueueResize(t *testing.T) {
	t.Run("Shrink", func(t *testing.T) {
		q := newDeadLetterQueue(8, NewNopLogger())
		publishN(q, 6)

		q.Resize(3)
		recent := q.Recent()
		if len(recent) != 3 {
			t.Fatalf("expected 3 retained entries, got %d", len(recent))
		}
		// The most recent entries survive, oldest first.
		for i, dl := range recent {
			if want := i + 3; dl.Message.(seqMsg).seq != want {
				t.Errorf("entry %d: expected seq %d, got %v", i, want, dl.Message)
			}
		}
		if q.Count() != 6 {
			t.Errorf("resize must not touch the total, got %d", q.Count())
		}
	})

	t.Run("Grow", func(t *testing.T) {
		q := newDeadLetterQueue(2, NewNopLogger())
		publishN(q, 5)

		q.Resize(4)
		recent := q.Recent()
		if len(recent) != 2 {
			t.Fatalf("expected 2 retained entries, got %d", len(recent))
		}

		publishN(q, 2)
		recent = q.Recent()
		if len(recent) != 4 {
			t.Fatalf("expected 4 entries after refill, got %d", len(recent))
		}
	})

	t.Run("IgnoresInvalidSize", func(t *testing.T) {
		q := newDeadLetterQueue(2, NewNopLogger())
		publishN(q, 1)
		q.Resize(0)
		if len(q.Recent()) != 1 {
			t.Error("zero size must leave the ring untouched")
		}
	})

	t.Run("SubscribersSurvive", func(t *testing.T) {
		q := newDeadLetterQueue(2, NewNopLogger())
		ch := make(chan DeadLetter, 1)
		q.Subscribe(ch)
		q.Resize(4)
		publishN(q, 1)
		select {
		case <-ch:
		default:
			t.Error("subscriber lost across resize")
		}
	})
}

func TestDeadLetterQueueSubscriberNeverBlocks(t *testing.T) {
	q := newDeadLetterQueue(4, NewNopLogger())
	ch := make(chan DeadLetter) // unbuffered, nobody reading

	q.Subscribe(ch)
	publishN(q, 3)

	if q.dropped.Load() != 3 {
		t.Errorf("expected 3 dropped deliveries, got %d", q.dropped.Load())
	}
	q.Unsubscribe(ch)
	publishN(q, 1)
	if q.dropped.Load() != 3 {
		t.Errorf("unsubscribed channel still counted: %d", q.dropped.Load())
	}
}
