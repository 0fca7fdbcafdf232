package util

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestBasicOperations tests basic push and poll functionality
func TestBasicOperations(t *testing.T) {
	q := NewMPSCQueue[int]()

	if _, ok := q.Poll(); ok {
		t.Fatal("Poll on empty queue should return false")
	}

	for i := 0; i < 10; i++ {
		v := i
		q.Push(&v)
	}

	if q.Len() != 10 {
		t.Errorf("Expected len 10, got %d", q.Len())
	}

	for i := 0; i < 10; i++ {
		val, ok := q.Poll()
		if !ok {
			t.Fatalf("Expected item %d, queue was empty", i)
		}
		if *val != i {
			t.Errorf("Expected %d, got %d", i, *val)
		}
	}

	if _, ok := q.Poll(); ok {
		t.Error("Queue should be empty")
	}
	if q.Len() != 0 {
		t.Errorf("Expected len 0, got %d", q.Len())
	}
}

// TestPushNil verifies nil values are ignored
func TestPushNil(t *testing.T) {
	q := NewMPSCQueue[int]()
	q.Push(nil)
	if q.Len() != 0 {
		t.Errorf("Expected len 0, got %d", q.Len())
	}
	if _, ok := q.Poll(); ok {
		t.Error("Queue should still be empty")
	}
}

// TestConcurrentProducers verifies the queue works correctly with multiple producers
// and a consumer that polls while producers are still running
func TestConcurrentProducers(t *testing.T) {
	q := NewMPSCQueue[int]()

	const numProducers = 10
	const itemsPerProducer = 1000
	totalItems := numProducers * itemsPerProducer

	received := make(map[int]bool, totalItems)
	done := make(chan struct{})

	go func() {
		defer close(done)
		deadline := time.After(5 * time.Second)
		for len(received) < totalItems {
			select {
			case <-deadline:
				t.Errorf("Timeout waiting for items, received %d of %d", len(received), totalItems)
				return
			default:
			}

			val, ok := q.Poll()
			if !ok {
				runtime.Gosched()
				continue
			}
			if received[*val] {
				t.Errorf("Duplicate item received: %d", *val)
			}
			received[*val] = true
		}
	}()

	var wg sync.WaitGroup
	wg.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func(producerID int) {
			defer wg.Done()
			base := producerID * itemsPerProducer
			for i := 0; i < itemsPerProducer; i++ {
				val := base + i
				q.Push(&val)
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(p)
	}

	wg.Wait()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("Timeout waiting for consumer to finish")
	}

	if len(received) != totalItems {
		t.Errorf("Expected %d items, got %d", totalItems, len(received))
	}
}

// TestOrderingSingleProducer tests that a single producer observes FIFO order
func TestOrderingSingleProducer(t *testing.T) {
	q := NewMPSCQueue[int]()

	const itemCount = 10000
	go func() {
		for i := 0; i < itemCount; i++ {
			v := i
			q.Push(&v)
		}
	}()

	prev := -1
	timeout := time.After(5 * time.Second)
	for n := 0; n < itemCount; {
		select {
		case <-timeout:
			t.Fatalf("Timeout waiting for item %d", n)
		default:
		}
		val, ok := q.Poll()
		if !ok {
			runtime.Gosched()
			continue
		}
		if *val != prev+1 {
			t.Fatalf("Out of order: expected %d, got %d", prev+1, *val)
		}
		prev = *val
		n++
	}
}

// BenchmarkSingleProducer benchmarks push with a single producer
func BenchmarkSingleProducer(b *testing.B) {
	q := NewMPSCQueue[int]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		i := i
		q.Push(&i)
		q.Poll()
	}
}

// BenchmarkMultiProducer benchmarks the queue with multiple producers
func BenchmarkMultiProducer(b *testing.B) {
	q := NewMPSCQueue[int]()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			q.Push(&i)
			i++
		}
	})
}
