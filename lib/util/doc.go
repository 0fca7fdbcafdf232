// Package util provides small concurrency building blocks shared by the
// dSend packages.
//
// The package contains:
//   - mpsc: A lock-free Multi-Producer Single-Consumer (MPSC) queue with a
//     non-blocking Poll, used to park messages until a retry cycle drains them
//
// The queue has no background goroutine. The consumer decides when to poll,
// which makes it usable from timer callbacks that must never block.
package util
