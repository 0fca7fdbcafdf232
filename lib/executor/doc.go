// Package executor provides the asynchronous queueing pipeline used by the
// data sender: a bounded, non-blocking producer/consumer queue drained by
// exactly one dedicated consumer goroutine.
//
// Producers call Execute and return immediately. If the queue is at
// capacity the item is rejected (Execute returns false) instead of being
// buffered, so callers never block on slow I/O done by the consumer.
//
// The consumer dispatches items in FIFO order to a listener function. A
// panic inside the listener is recovered and logged, the consumer then
// continues with the next item.
//
// Lifecycle:
//
//	NotStarted --Start--> Running --Stop--> Stopping --> Stopped
//
// Items accepted before Start are dispatched once the executor runs.
// Stop abandons items that are still queued and reports how many were lost.
package executor
