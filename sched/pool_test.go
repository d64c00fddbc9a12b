package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func task(fn func()) Task {
	return func() Task {
		fn()
		return nil
	}
}

func TestDequeLIFOForOwner(t *testing.T) {
	d := newDeque(8)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		tk := Task(func() Task { order = append(order, i); return nil })
		require.True(t, d.pushBottom(&tk))
	}

	for i := 0; i < 3; i++ {
		tk := d.popBottom()
		require.NotNil(t, tk)
		(*tk)()
	}
	assert.Nil(t, d.popBottom())
	assert.Equal(t, []int{2, 1, 0}, order)
}

func TestDequeStealFIFO(t *testing.T) {
	d := newDeque(8)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		tk := Task(func() Task { order = append(order, i); return nil })
		require.True(t, d.pushBottom(&tk))
	}

	for i := 0; i < 3; i++ {
		tk := d.steal()
		require.NotNil(t, tk)
		(*tk)()
	}
	assert.Nil(t, d.steal())
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestDequeFullSpills(t *testing.T) {
	d := newDeque(2)
	tk := Task(func() Task { return nil })

	require.True(t, d.pushBottom(&tk))
	require.True(t, d.pushBottom(&tk))
	assert.False(t, d.pushBottom(&tk), "deque over capacity should reject")
}

func TestDequeConcurrentSteals(t *testing.T) {
	const total = 10000
	d := newDeque(total * 2)

	executed := atomic.NewInt64(0)
	for i := 0; i < total; i++ {
		tk := Task(func() Task { executed.Inc(); return nil })
		require.True(t, d.pushBottom(&tk))
	}

	var wg sync.WaitGroup
	// One owner popping, three thieves stealing.
	wg.Add(4)
	go func() {
		defer wg.Done()
		for {
			tk := d.popBottom()
			if tk == nil {
				if d.size() == 0 {
					return
				}
				continue
			}
			(*tk)()
		}
	}()
	for i := 0; i < 3; i++ {
		go func() {
			defer wg.Done()
			for {
				tk := d.steal()
				if tk == nil {
					if d.size() == 0 {
						return
					}
					continue
				}
				(*tk)()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(total), executed.Load(), "every task runs exactly once")
}

func TestPoolExecutesSubmittedTasks(t *testing.T) {
	p := NewPool(Options{Workers: 4})
	require.NoError(t, p.Start())
	defer p.Shutdown(context.Background())

	const total = 1000
	counter := atomic.NewInt64(0)
	var wg sync.WaitGroup
	wg.Add(total)

	for i := 0; i < total; i++ {
		err := p.Submit(task(func() {
			counter.Inc()
			wg.Done()
		}))
		require.NoError(t, err)
	}

	wg.Wait()
	assert.Equal(t, int64(total), counter.Load())

	stats := p.Stats()
	assert.Equal(t, uint64(total), stats.Submitted)
	assert.GreaterOrEqual(t, stats.Completed, uint64(total))
}

func TestPoolRunsContinuations(t *testing.T) {
	p := NewPool(Options{Workers: 2})
	require.NoError(t, p.Start())
	defer p.Shutdown(context.Background())

	done := make(chan int, 1)
	var chain func(n int) Task
	chain = func(n int) Task {
		return func() Task {
			if n == 0 {
				done <- 0
				return nil
			}
			return chain(n - 1)
		}
	}

	require.NoError(t, p.Submit(chain(100)))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("continuation chain did not complete")
	}
}

func TestPoolPanicHandler(t *testing.T) {
	recovered := make(chan interface{}, 1)
	p := NewPool(Options{
		Workers:      1,
		PanicHandler: func(r interface{}) { recovered <- r },
	})
	require.NoError(t, p.Start())
	defer p.Shutdown(context.Background())

	require.NoError(t, p.Submit(func() Task { panic("boom") }))

	select {
	case r := <-recovered:
		assert.Equal(t, "boom", r)
	case <-time.After(2 * time.Second):
		t.Fatal("panic handler not invoked")
	}

	// The worker survives the panic.
	done := make(chan struct{})
	require.NoError(t, p.Submit(task(func() { close(done) })))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive task panic")
	}
}

func TestPoolShutdownIdempotent(t *testing.T) {
	p := NewPool(Options{Workers: 2})
	require.NoError(t, p.Start())

	require.NoError(t, p.Shutdown(context.Background()))
	require.NoError(t, p.Shutdown(context.Background()))

	assert.ErrorIs(t, p.Submit(task(func() {})), ErrPoolStopped)
}

func TestPoolStealing(t *testing.T) {
	// A single slow task on one worker forces the others to steal the
	// continuations it spawns.
	p := NewPool(Options{Workers: 4, DequeCapacity: 8})
	require.NoError(t, p.Start())
	defer p.Shutdown(context.Background())

	const total = 500
	var wg sync.WaitGroup
	wg.Add(total)
	for i := 0; i < total; i++ {
		require.NoError(t, p.Submit(task(func() {
			time.Sleep(time.Millisecond)
			wg.Done()
		})))
	}
	wg.Wait()
}
