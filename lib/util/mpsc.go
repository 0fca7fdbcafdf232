package util

import (
	"runtime"
	"sync/atomic"
)

// node represents a single element in the queue
type node[T interface{}] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// MPSCQueue is a lock-free multi-producer single-consumer queue.
//
// Features and Guarantees:
//
//   - Lock-Free: Push uses atomic operations only and never blocks
//   - Unbounded Size: the queue can grow to any size as needed, limited only by available memory
//   - Thread-Safe writes: Allows any number of goroutines to safely Push() concurrently
//   - Single Consumer: Poll() must never be called by two goroutines at the same time.
//     Callers serialize their consumers externally (e.g. with an atomic flag).
//   - No Strict FIFO Guarantee: Under concurrent Push() operations, the exact ordering of items
//     is determined by which producer completes its operation first, not by which producer
//     started first. A single producer always observes FIFO order.
type MPSCQueue[T interface{}] struct {
	head atomic.Pointer[node[T]]
	tail atomic.Pointer[node[T]]
	size atomic.Int64
}

// NewMPSCQueue creates a new empty queue
func NewMPSCQueue[T interface{}]() *MPSCQueue[T] {
	// Create a sentinel node (dummy node at the beginning)
	sentinel := &node[T]{}

	q := &MPSCQueue[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	return q
}

// Push adds an item to the queue. A nil value is ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *MPSCQueue[T]) Push(value *T) {
	if value == nil {
		return
	}

	newNode := &node[T]{value: value}
	var backoff uint8 = 0

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()

		if next == nil {
			// the tail has no next node yet, try to append our node
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already moved the tail forward
				q.tail.CompareAndSwap(tailNode, newNode)
				q.size.Add(1)
				return
			}
		} else {
			// help a producer that appended but has not moved the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// exponential backoff under contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// Poll removes and returns the oldest item. It never blocks:
// if the queue is empty (nil, false) is returned.
//
// Thread-safety: only one goroutine may poll at a time.
func (q *MPSCQueue[T]) Poll() (*T, bool) {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil, false
	}

	value := next.value

	// next becomes the new sentinel
	q.head.Store(next)
	next.value = nil
	q.size.Add(-1)

	return value, true
}

// Len returns the number of items currently in the queue.
// Under concurrent Push() the value is a snapshot and may already be stale.
func (q *MPSCQueue[T]) Len() int {
	n := q.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
