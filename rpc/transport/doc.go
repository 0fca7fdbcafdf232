// Package transport defines the interfaces and abstractions for the
// connection layer of dSend. It provides the contract that all transport
// implementations (TCP, Unix sockets) fulfill, so the sender is protocol
// agnostic.
//
// Key Components:
//
//   - IRPCClientTransport: creates connections (synchronously with Connect or in
//     the background with ScheduledConnect) and one-shot timers (NewTimeout).
//
//   - IRPCConnection: one persistent connection with asynchronous fire-and-forget
//     writes (SendAsync) and correlated request/response exchanges (Request).
//
//   - Future: the result type of asynchronous operations. Listeners registered
//     with OnComplete run on the completing goroutine, which is usually a
//     transport goroutine and not the caller.
//
//   - IRPCServerTransport: the server side. Receives payloads and routes them to
//     a ServerHandleFunc.
//
// Errors:
//
//	All failures are reported through sentinel errors (ErrConnectFailed,
//	ErrNotConnected, ErrConnectionClosed, ErrRequestTimeout, ErrTransportReleased)
//	and the typed *ConnectError, so callers can use errors.Is / errors.As.
package transport
