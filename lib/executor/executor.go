package executor

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/time/rate"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("executor")

// DefaultJoinTimeout bounds how long Stop waits for the consumer goroutine
const DefaultJoinTimeout = 3 * time.Second

// --------------------------------------------------------------------------
// State
// --------------------------------------------------------------------------

// State is the lifecycle state of an executor
type State int32

const (
	StateNotStarted State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// --------------------------------------------------------------------------
// Executor
// --------------------------------------------------------------------------

// AsyncQueueingExecutor dispatches items to a listener on a single consumer goroutine
type AsyncQueueingExecutor[T any] struct {
	name     string
	items    chan T
	listener func(T)

	state   atomic.Int32
	stopCh  chan struct{}
	done    chan struct{}
	stopMu  sync.Mutex   // serializes Stop
	stateMu sync.RWMutex // held for writing while the state changes, for reading while Execute enqueues
	timeout time.Duration

	dispatched atomic.Uint64
	dropped    atomic.Uint64
	panics     atomic.Uint64
	abandoned  atomic.Uint64

	// dropLog throttles the queue full warning
	dropLog *rate.Limiter
}

// NewAsyncQueueingExecutor creates an executor with a queue of the given capacity.
// The listener is called for every accepted item, one at a time, in submission order.
func NewAsyncQueueingExecutor[T any](name string, queueSize int, listener func(T)) (*AsyncQueueingExecutor[T], error) {
	if queueSize <= 0 {
		return nil, fmt.Errorf("executor %s: queue size must be positive, got %d", name, queueSize)
	}
	if listener == nil {
		return nil, fmt.Errorf("executor %s: listener must not be nil", name)
	}

	return &AsyncQueueingExecutor[T]{
		name:     name,
		items:    make(chan T, queueSize),
		listener: listener,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		timeout:  DefaultJoinTimeout,
		dropLog:  rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// Start launches the consumer goroutine. Calling Start more than once, or after Stop, is a no-op.
func (e *AsyncQueueingExecutor[T]) Start() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if !e.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		return
	}
	go e.consume()
	Logger.Debugf("executor %s started (capacity %d)", e.name, cap(e.items))
}

// Execute enqueues an item without blocking.
// It returns false if the queue is full or the executor is stopping or stopped.
// An accepted item is either dispatched or abandoned by Stop, never lost silently.
func (e *AsyncQueueingExecutor[T]) Execute(item T) bool {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	switch e.State() {
	case StateNotStarted, StateRunning:
	default:
		Logger.Debugf("executor %s rejected item: %s", e.name, e.State())
		return false
	}

	select {
	case e.items <- item:
		return true
	default:
		n := e.dropped.Add(1)
		if e.dropLog.Allow() {
			Logger.Warningf("executor %s queue is full (capacity %d), item dropped (%d dropped so far)", e.name, cap(e.items), n)
		}
		return false
	}
}

// Stop signals the consumer to exit, waits for it (bounded by the join timeout)
// and abandons items still waiting in the queue. Stop is idempotent.
func (e *AsyncQueueingExecutor[T]) Stop() {
	e.stopMu.Lock()
	defer e.stopMu.Unlock()

	// after the transition no Execute can enqueue anymore
	e.stateMu.Lock()
	prev := e.State()
	switch prev {
	case StateStopped, StateStopping:
		e.stateMu.Unlock()
		return
	case StateNotStarted:
		e.state.Store(int32(StateStopped))
	default:
		e.state.Store(int32(StateStopping))
	}
	close(e.stopCh)
	e.stateMu.Unlock()

	if prev == StateNotStarted {
		e.abandon()
		return
	}

	select {
	case <-e.done:
	case <-time.After(e.timeout):
		Logger.Warningf("executor %s: consumer did not exit within %s", e.name, e.timeout)
	}

	e.abandon()
	e.state.Store(int32(StateStopped))
	Logger.Infof("executor %s stopped (dispatched=%d, dropped=%d, abandoned=%d)", e.name, e.dispatched.Load(), e.dropped.Load(), e.abandoned.Load())
}

// State returns the current lifecycle state
func (e *AsyncQueueingExecutor[T]) State() State {
	return State(e.state.Load())
}

// Len returns the number of items waiting to be dispatched
func (e *AsyncQueueingExecutor[T]) Len() int {
	return len(e.items)
}

// Dispatched returns the number of items handed to the listener
func (e *AsyncQueueingExecutor[T]) Dispatched() uint64 {
	return e.dispatched.Load()
}

// Dropped returns the number of items rejected because the queue was full
func (e *AsyncQueueingExecutor[T]) Dropped() uint64 {
	return e.dropped.Load()
}

// Panics returns the number of recovered listener panics
func (e *AsyncQueueingExecutor[T]) Panics() uint64 {
	return e.panics.Load()
}

// Abandoned returns the number of accepted items discarded by Stop
func (e *AsyncQueueingExecutor[T]) Abandoned() uint64 {
	return e.abandoned.Load()
}

// --------------------------------------------------------------------------
// Internal
// --------------------------------------------------------------------------

// consume is the single consumer goroutine
func (e *AsyncQueueingExecutor[T]) consume() {
	defer close(e.done)

	for {
		// stop has priority over pending items
		select {
		case <-e.stopCh:
			return
		default:
		}

		select {
		case <-e.stopCh:
			return
		case item := <-e.items:
			e.dispatch(item)
		}
	}
}

// dispatch calls the listener and recovers from panics
func (e *AsyncQueueingExecutor[T]) dispatch(item T) {
	defer func() {
		if r := recover(); r != nil {
			e.panics.Add(1)
			Logger.Errorf("executor %s: listener panicked: %v", e.name, r)
		}
	}()
	e.dispatched.Add(1)
	e.listener(item)
}

// abandon discards queued items and counts them as abandoned
func (e *AsyncQueueingExecutor[T]) abandon() {
	n := 0
	for {
		select {
		case <-e.items:
			n++
			e.abandoned.Add(1)
		default:
			if n > 0 {
				Logger.Warningf("executor %s: %d queued items abandoned on stop", e.name, n)
			}
			return
		}
	}
}
