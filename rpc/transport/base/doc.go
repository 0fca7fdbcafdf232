// Package base implements the protocol independent part of the dSend
// transports. TCP and Unix sockets only contribute a connector.
//
// Wire format:
//
//	[type:1][requestID:8][length:4][payload:length]
//
// The frame type is one of send (fire-and-forget), request or response.
// A response carries the request id of the request it answers.
//
// Client:
//
//   - Every connection has one reader goroutine that completes pending request
//     futures. Pending requests are kept in an xsync.MapOf keyed by request id.
//   - Writes are serialized per connection and bounded by the write deadline.
//   - Every request has its own timeout. A late response is logged and dropped.
//   - If the link breaks, all pending requests fail and the connection reconnects
//     in the background until it is closed. A connection created with
//     ScheduledConnect starts in this mode.
//
// Server:
//
//   - Send frames are handled inline in the order they arrive.
//   - Request frames are handled by at most WorkersPerConn goroutines per
//     connection. Read buffers are pooled with a sync.Pool.
//   - Close stops accepting, closes open connections and waits for their handlers.
package base
