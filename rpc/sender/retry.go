package sender

import (
	"github.com/ValentinKolb/dSend/lib/util"
	"sync/atomic"
	"time"
)

// --------------------------------------------------------------------------
// Retry Queue
// --------------------------------------------------------------------------

// retryEntry is a failed request waiting to be re-issued
type retryEntry struct {
	packet     []byte
	retryCount int
	msgType    string
}

// fail uses up one retry and returns the remaining budget
func (e *retryEntry) fail() int {
	e.retryCount--
	return e.retryCount
}

// retryQueue is an unbounded queue that any goroutine may add to.
// Only the goroutine owning the drain cycle polls.
type retryQueue struct {
	entries *util.MPSCQueue[retryEntry]
}

func newRetryQueue() *retryQueue {
	return &retryQueue{entries: util.NewMPSCQueue[retryEntry]()}
}

func (q *retryQueue) add(e *retryEntry) {
	q.entries.Push(e)
}

// poll returns the next entry or nil if the queue is empty
func (q *retryQueue) poll() *retryEntry {
	e, _ := q.entries.Poll()
	return e
}

func (q *retryQueue) len() int {
	return q.entries.Len()
}

// --------------------------------------------------------------------------
// Retry Scheduler
// --------------------------------------------------------------------------

// reissueFunc sends a packet again with the given remaining retry budget
type reissueFunc func(packet []byte, retryCount int, msgType string)

// timerFunc schedules task once after delay
type timerFunc func(delay time.Duration, task func())

// retryScheduler drains the retry queue in cycles. fireState is true while a
// cycle is armed or running, so at most one cycle exists at any time.
//
// An entry added right after drain observed an empty queue but before it
// cleared fireState stays in the queue until the next failure arms a new cycle.
type retryScheduler struct {
	queue     *retryQueue
	fireState atomic.Bool
	delay     time.Duration
	schedule  timerFunc
	reissue   reissueFunc
	metrics   *senderMetrics
}

func newRetryScheduler(delay time.Duration, schedule timerFunc, reissue reissueFunc, metrics *senderMetrics) *retryScheduler {
	return &retryScheduler{
		queue:    newRetryQueue(),
		delay:    delay,
		schedule: schedule,
		reissue:  reissue,
		metrics:  metrics,
	}
}

// retry queues a failed packet. Packets without remaining budget are dropped.
// It never blocks and is called from transport goroutines.
func (s *retryScheduler) retry(packet []byte, retryCount int, msgType string) {
	if retryCount <= 0 {
		s.metrics.retryDropped.Inc()
		Logger.Warningf("%s request dropped, retry budget exhausted", msgType)
		return
	}

	s.queue.add(&retryEntry{packet: packet, retryCount: retryCount, msgType: msgType})

	// only the winner arms a cycle, everyone else relies on it
	if s.fireState.CompareAndSwap(false, true) {
		s.metrics.retryCycles.Inc()
		Logger.Debugf("retry cycle armed, draining in %s", s.delay)
		s.schedule(s.delay, s.drain)
	}
}

// drain re-issues entries until the queue is empty, then disarms the cycle
func (s *retryScheduler) drain() {
	for {
		e := s.queue.poll()
		if e == nil {
			s.fireState.Store(false)
			return
		}

		remaining := e.fail()
		s.metrics.retries.Inc()
		Logger.Debugf("retrying %s request (%d retries left)", e.msgType, remaining)
		s.reissue(e.packet, remaining, e.msgType)
	}
}

// active reports whether a drain cycle is armed or running
func (s *retryScheduler) active() bool {
	return s.fireState.Load()
}
