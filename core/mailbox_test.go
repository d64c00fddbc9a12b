package core

import (
	"fmt"
	"sync"
	"testing"
)

type note struct {
	text string
}

func (note) Kind() string { return "test.note" }

type urgentNote struct {
	text string
}

func (urgentNote) Kind() string  { return "test.urgent_note" }
func (urgentNote) Priority() int { return 1 }

func TestUnboundedMailboxFIFO(t *testing.T) {
	m := NewUnboundedMailbox()
	for i := 0; i < 100; i++ {
		if err := m.Enqueue(Envelope{Message: note{text: fmt.Sprintf("m%d", i)}}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	if m.Len() != 100 {
		t.Errorf("Expected length 100, got %d", m.Len())
	}
	for i := 0; i < 100; i++ {
		env, ok := m.Dequeue()
		if !ok {
			t.Fatalf("Dequeue %d failed", i)
		}
		want := fmt.Sprintf("m%d", i)
		if got := env.Message.(note).text; got != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
	}
	if _, ok := m.Dequeue(); ok {
		t.Error("Expected empty mailbox")
	}
}

func TestUnboundedMailboxConcurrentEnqueue(t *testing.T) {
	m := NewUnboundedMailbox()
	const producers = 8
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = m.Enqueue(Envelope{Message: note{text: fmt.Sprintf("%d-%d", p, i)}})
			}
		}(p)
	}
	wg.Wait()

	// Drain single-threaded and check per-producer order.
	last := make(map[string]int)
	seen := 0
	for {
		env, ok := m.Dequeue()
		if !ok {
			break
		}
		seen++
		var p, i int
		fmt.Sscanf(env.Message.(note).text, "%d-%d", &p, &i)
		key := fmt.Sprintf("p%d", p)
		if prev, exists := last[key]; exists && i != prev+1 {
			t.Errorf("Producer %d out of order: %d after %d", p, i, prev)
		}
		last[key] = i
	}
	if seen != producers*perProducer {
		t.Errorf("Expected %d messages, drained %d", producers*perProducer, seen)
	}
}

func TestBoundedMailboxBackpressure(t *testing.T) {
	m := NewBoundedMailbox(2)
	if err := m.Enqueue(Envelope{Message: note{text: "a"}}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := m.Enqueue(Envelope{Message: note{text: "b"}}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := m.Enqueue(Envelope{Message: note{text: "c"}}); err != ErrMailboxFull {
		t.Errorf("Expected ErrMailboxFull, got %v", err)
	}
	if _, ok := m.Dequeue(); !ok {
		t.Fatal("Dequeue failed")
	}
	if err := m.Enqueue(Envelope{Message: note{text: "c"}}); err != nil {
		t.Errorf("Enqueue after Dequeue failed: %v", err)
	}
}

func TestPriorityMailboxOrdering(t *testing.T) {
	m := NewPriorityMailbox()
	_ = m.Enqueue(Envelope{Message: note{text: "low1"}})
	_ = m.Enqueue(Envelope{Message: note{text: "low2"}})
	_ = m.Enqueue(Envelope{Message: urgentNote{text: "high1"}})
	_ = m.Enqueue(Envelope{Message: urgentNote{text: "high2"}})

	want := []string{"high1", "high2", "low1", "low2"}
	for _, w := range want {
		env, ok := m.Dequeue()
		if !ok {
			t.Fatalf("Dequeue failed, wanted %s", w)
		}
		var got string
		switch msg := env.Message.(type) {
		case note:
			got = msg.text
		case urgentNote:
			got = msg.text
		}
		if got != w {
			t.Errorf("Expected %s, got %s", w, got)
		}
	}
}

func TestPriorityMailboxSystemMessagesJumpQueue(t *testing.T) {
	m := NewPriorityMailbox()
	_ = m.Enqueue(Envelope{Message: note{text: "low"}})
	_ = m.Enqueue(Envelope{Message: poisonPill{}})

	env, ok := m.Dequeue()
	if !ok {
		t.Fatal("Dequeue failed")
	}
	if _, isPill := env.Message.(poisonPill); !isPill {
		t.Errorf("Expected poisonPill first, got %T", env.Message)
	}
}

func TestNewMailboxSelection(t *testing.T) {
	if _, ok := newMailbox(MailboxUnbounded, 0).(*UnboundedMailbox); !ok {
		t.Error("Expected UnboundedMailbox")
	}
	if _, ok := newMailbox(MailboxBounded, 4).(*BoundedMailbox); !ok {
		t.Error("Expected BoundedMailbox")
	}
	if _, ok := newMailbox(MailboxPriority, 0).(*PriorityMailbox); !ok {
		t.Error("Expected PriorityMailbox")
	}
}
