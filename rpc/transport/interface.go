package transport

import (
	"github.com/ValentinKolb/dSend/rpc/common"
	"time"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming payloads.
// It is called by a server transport when a frame is received. oneway is
// true for fire-and-forget payloads, the returned response is ignored then.
type ServerHandleFunc func(req []byte, oneway bool) (resp []byte)

// IRPCServerTransport is the interface for the server side of the transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler that is called for every received payload
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport and blocks until Close is called or the listener fails.
	// It returns nil after a regular Close.
	Listen(config common.ServerConfig) error
	// Close stops accepting connections and closes all open connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCConnection is one logical connection to a remote endpoint.
// All methods are safe for concurrent use.
type IRPCConnection interface {
	// SendAsync writes a fire-and-forget payload. The future completes once the
	// payload was written to the socket or fails if it could not be written.
	SendAsync(data []byte) *Future[struct{}]
	// Request writes a payload and returns a future for the correlated response.
	// The future fails with ErrRequestTimeout if no response arrives in time.
	Request(data []byte) *Future[[]byte]
	// IsConnected reports whether the underlying link is currently live
	IsConnected() bool
	// Endpoint returns the remote endpoint of the connection
	Endpoint() string
	// Close closes the connection and fails all pending requests. Close is idempotent.
	Close() error
}

// IRPCClientTransport creates connections and timers for a sender
type IRPCClientTransport interface {
	// Connect makes one synchronous connection attempt.
	// On failure a *ConnectError is returned (errors.Is(err, ErrConnectFailed) holds).
	Connect(endpoint string) (IRPCConnection, error)
	// ScheduledConnect never fails. It returns a connection immediately and keeps
	// trying to establish the link in the background. Until then, sends and
	// requests on the connection fail with ErrNotConnected.
	ScheduledConnect(endpoint string) IRPCConnection
	// NewTimeout runs task once after delay on a transport owned goroutine.
	// Scheduled tasks always run, also after Release.
	NewTimeout(delay time.Duration, task func())
	// Release closes all connections created by this transport. Afterwards
	// Connect fails with ErrTransportReleased.
	Release()
}
