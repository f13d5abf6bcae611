package hal

import (
	"sync"
	"testing"
	"time"
)

// irqQueue collects posted completions for a test to run on its own goroutine.
type irqQueue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *irqQueue) Post(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fns = append(q.fns, fn)
	return true
}

func (q *irqQueue) drain() int {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// drainUntil runs completions until cond holds or the timeout expires.
func (q *irqQueue) drainUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for completion")
		}
		if q.drain() == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}
