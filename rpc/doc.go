// Package rpc provides the communication layer of dSend: the data sender used
// by agents, the collector server that receives their messages, and the
// transports and serializers connecting the two.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - sender: The asynchronous data sender. Callers never block, messages are
//     queued, serialized and written by a single background goroutine, and
//     failed requests are retried in batches.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets) on top of a shared framed connection with request
//     correlation and background reconnection.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - server: RPC server components that handle incoming messages, including
//     the collector adapter.
package rpc
