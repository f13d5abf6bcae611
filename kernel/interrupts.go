package kernel

import "sync/atomic"

const interruptSlots = 64

type interruptSlot struct {
	ready atomic.Bool
	fn    func()
}

// interruptQueue is a fixed-size multi-producer, single-consumer queue of completion
// callbacks. Producers are hardware goroutines; the consumer is the kernel loop.
type interruptQueue struct {
	_     [0]func() // prevent accidental copying.
	head  atomic.Uint32
	tail  atomic.Uint32
	slots [interruptSlots]interruptSlot
}

func (q *interruptQueue) tryPush(fn func()) bool {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		if head-tail >= interruptSlots {
			return false
		}
		if !q.head.CompareAndSwap(head, head+1) {
			continue
		}
		s := &q.slots[head%interruptSlots]
		s.fn = fn
		s.ready.Store(true)
		return true
	}
}

func (q *interruptQueue) pop() (func(), bool) {
	tail := q.tail.Load()
	if tail == q.head.Load() {
		return nil, false
	}
	s := &q.slots[tail%interruptSlots]
	// Reserved by a producer that has not published yet.
	if !s.ready.Load() {
		return nil, false
	}
	fn := s.fn
	s.fn = nil
	s.ready.Store(false)
	q.tail.Store(tail + 1)
	return fn, true
}

// Post queues a completion callback to run in the kernel context.
//
// It is safe to call from any goroutine. Callbacks run in posting order, each to
// completion. It returns false if the queue is full.
func (k *Kernel) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	if !k.irq.tryPush(fn) {
		return false
	}
	k.signal()
	return true
}

func (k *Kernel) serviceInterrupts() bool {
	worked := false
	for i := 0; i < interruptSlots; i++ {
		fn, ok := k.irq.pop()
		if !ok {
			break
		}
		fn()
		worked = true
	}
	return worked
}
