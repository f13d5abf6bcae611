package kernel

import (
	"runtime"
	"sync"
	"testing"
)

func TestInterruptQueueFull(t *testing.T) {
	var q interruptQueue

	for i := 0; i < interruptSlots; i++ {
		if ok := q.tryPush(func() {}); !ok {
			t.Fatalf("tryPush() ok = false at slot %d, want true", i)
		}
	}
	if ok := q.tryPush(func() {}); ok {
		t.Fatalf("tryPush() ok = true when full, want false")
	}

	for i := 0; i < interruptSlots; i++ {
		if _, ok := q.pop(); !ok {
			t.Fatalf("pop() ok = false at slot %d, want true", i)
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatalf("pop() ok = true when empty, want false")
	}
}

func TestPostRunsInOrder(t *testing.T) {
	k := New(nil)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		if !k.Post(func() { got = append(got, i) }) {
			t.Fatalf("Post(%d) = false, want true", i)
		}
	}
	if !k.Step() {
		t.Fatal("Step() = false, want true")
	}
	if len(got) != 5 {
		t.Fatalf("ran %d callbacks, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("callback %d ran as %d", i, v)
		}
	}
}

func TestPostConcurrentProducers(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(oldProcs)

	const (
		producers = 4
		perProd   = 2_000
		total     = producers * perProd
	)

	k := New(nil)
	seen := make([]bool, total)
	count := 0

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(producers)
	for producerID := 0; producerID < producers; producerID++ {
		go func(producerID int) {
			defer wg.Done()
			<-start
			for i := 0; i < perProd; i++ {
				id := producerID*perProd + i
				for !k.Post(func() {
					if seen[id] {
						t.Errorf("duplicate callback %d", id)
					}
					seen[id] = true
					count++
				}) {
					runtime.Gosched()
				}
			}
		}(producerID)
	}
	close(start)

	for count < total {
		if !k.Step() {
			runtime.Gosched()
		}
	}
	wg.Wait()
}
