// Package sender implements the data sender: the client side of dSend that
// accepts application messages, serializes them and transmits them to a
// collector over one persistent connection, without ever blocking the caller.
//
// Data flow:
//
//	caller -> Send/Request -> pipeline (bounded queue, one consumer goroutine)
//	       -> bounded serializer -> connection manager (SendAsync / Request)
//	       -> [request failed] -> retry queue -> retry scheduler -> connection manager
//
// Key Components:
//
//   - IDataSender / NewDataSender: the public surface. Send and Request only
//     enqueue and return false if the pipeline is full (backpressure). The
//     outcome of a request is never reported back to the caller.
//
//   - connectionManager: connects synchronously up to ConnectRetryCount times and
//     falls back to a background connection, so creating a sender never fails
//     because the collector is down.
//
//   - retryScheduler: failed requests (transport failure or a Result with Ok=false)
//     are put into an unbounded lock-free queue. The first failure arms a timer
//     (RetryDelay) by winning a compare-and-set on a single flag, all concurrent
//     failures just enqueue. When the timer fires the whole queue is drained in
//     one pass and the flag is cleared.
//
// Retry budget:
//
//	A request with budget n is attempted at most n+1 times. Malformed or
//	unexpected responses and oversize messages are never retried.
//
// Metrics:
//
//	Every sender keeps VictoriaMetrics counters and gauges (submitted, rejected,
//	failures, retries, queue lengths), written in Prometheus format by WriteMetrics.
package sender
