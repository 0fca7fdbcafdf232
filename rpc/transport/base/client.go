package base

import (
	"fmt"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection represents one logical connection. The underlying net.Conn
// is replaced (never mutated) when the link is re-established.
type clientConnection struct {
	parent   *clientTransport
	endpoint string

	connMu sync.Mutex // Protects conn and serializes writes
	conn   net.Conn   // nil while the link is down

	pending   *xsync.MapOf[uint64, *transport.Future[[]byte]]
	connected atomic.Bool
	closed    atomic.Bool
	stopCh    chan struct{} // Close signal for the reconnect goroutine
	closeOnce sync.Once
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   map[*clientConnection]struct{}
	connectionsMu sync.Mutex
	nextRequestID atomic.Uint64
	released      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector, config common.ClientConfig) transport.IRPCClientTransport {
	return &clientTransport{
		connector:   connector,
		config:      config,
		connections: make(map[*clientConnection]struct{}),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(endpoint string) (transport.IRPCConnection, error) {
	if t.released.Load() {
		return nil, &transport.ConnectError{Transport: t.connector.GetName(), Endpoint: endpoint, Err: transport.ErrTransportReleased}
	}

	c := t.newConnection(endpoint)
	if err := c.dial(); err != nil {
		t.untrack(c)
		return nil, err
	}

	Logger.Infof("connected to %s using %s transport", endpoint, t.connector.GetName())
	return c, nil
}

func (t *clientTransport) ScheduledConnect(endpoint string) transport.IRPCConnection {
	c := t.newConnection(endpoint)
	if t.released.Load() {
		c.Close()
		return c
	}

	Logger.Infof("scheduling background connect to %s every %s", endpoint, t.config.ReconnectInterval())
	go c.reconnectLoop(true)
	return c
}

func (t *clientTransport) NewTimeout(delay time.Duration, task func()) {
	time.AfterFunc(delay, task)
}

func (t *clientTransport) Release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}

	t.connectionsMu.Lock()
	conns := make([]*clientConnection, 0, len(t.connections))
	for c := range t.connections {
		conns = append(conns, c)
	}
	t.connectionsMu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	Logger.Debugf("%s transport released (%d connections closed)", t.connector.GetName(), len(conns))
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCConnection)
// --------------------------------------------------------------------------

func (c *clientConnection) SendAsync(data []byte) *transport.Future[struct{}] {
	if err := c.write(frameSend, 0, data); err != nil {
		return transport.FailedFuture[struct{}](err)
	}
	return transport.CompletedFuture(struct{}{})
}

func (c *clientConnection) Request(data []byte) *transport.Future[[]byte] {
	future := transport.NewFuture[[]byte]()
	requestID := c.parent.nextRequestID.Add(1)
	c.pending.Store(requestID, future)

	if timeout := c.parent.config.Timeout(); timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			c.failRequest(requestID, fmt.Errorf("%w after %s (endpoint %s)", transport.ErrRequestTimeout, timeout, c.endpoint))
		})
		future.OnComplete(func(*transport.Future[[]byte]) { timer.Stop() })
	}

	if err := c.write(frameRequest, requestID, data); err != nil {
		c.failRequest(requestID, err)
	}
	return future
}

func (c *clientConnection) IsConnected() bool {
	return c.connected.Load()
}

func (c *clientConnection) Endpoint() string {
	return c.endpoint
}

func (c *clientConnection) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.stopCh)

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.connected.Store(false)
		c.connMu.Unlock()

		c.failPending(transport.ErrConnectionClosed)
		c.parent.untrack(c)
		Logger.Debugf("connection to %s closed", c.endpoint)
	})
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// newConnection creates and tracks a connection without a live link
func (t *clientTransport) newConnection(endpoint string) *clientConnection {
	c := &clientConnection{
		parent:   t,
		endpoint: endpoint,
		pending:  xsync.NewMapOf[uint64, *transport.Future[[]byte]](),
		stopCh:   make(chan struct{}),
	}

	t.connectionsMu.Lock()
	t.connections[c] = struct{}{}
	t.connectionsMu.Unlock()

	return c
}

func (t *clientTransport) untrack(c *clientConnection) {
	t.connectionsMu.Lock()
	delete(t.connections, c)
	t.connectionsMu.Unlock()
}

// dial establishes the link and starts the response reader
func (c *clientConnection) dial() error {
	connector := c.parent.connector

	conn, err := connector.Connect(c.endpoint, c.parent.config.Timeout())
	if err != nil {
		return &transport.ConnectError{Transport: connector.GetName(), Endpoint: c.endpoint, Err: err}
	}

	// Upgrade the connection with protocol-specific settings
	if err := connector.UpgradeConnection(conn, c.parent.config); err != nil {
		conn.Close()
		return &transport.ConnectError{Transport: connector.GetName(), Endpoint: c.endpoint, Err: fmt.Errorf("upgrade failed: %w", err)}
	}

	c.connMu.Lock()
	if c.closed.Load() {
		c.connMu.Unlock()
		conn.Close()
		return &transport.ConnectError{Transport: connector.GetName(), Endpoint: c.endpoint, Err: transport.ErrConnectionClosed}
	}
	c.conn = conn
	c.connected.Store(true)
	c.connMu.Unlock()

	go c.readResponses(conn)
	return nil
}

// write sends one frame. Writes are serialized by connMu.
func (c *clientConnection) write(typ frameType, requestID uint64, data []byte) error {
	c.connMu.Lock()
	conn := c.conn
	if conn == nil {
		c.connMu.Unlock()
		if c.closed.Load() {
			return transport.ErrConnectionClosed
		}
		return fmt.Errorf("%w: %s", transport.ErrNotConnected, c.endpoint)
	}

	if timeout := c.parent.config.Timeout(); timeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err := writeFrame(conn, typ, requestID, data)
	c.connMu.Unlock()

	if err != nil {
		c.linkBroken(conn, err)
		return fmt.Errorf("write %s frame to %s: %w", typ, c.endpoint, err)
	}
	return nil
}

// readResponses reads response frames of one link and completes the pending requests
func (c *clientConnection) readResponses(conn net.Conn) {
	for {
		typ, requestID, data, err := readFrame(conn, nil)
		if err != nil {
			c.linkBroken(conn, err)
			return
		}

		if typ != frameResponse {
			Logger.Warningf("unexpected %s frame from %s, ignored", typ, c.endpoint)
			continue
		}

		future, found := c.pending.LoadAndDelete(requestID)
		if !found {
			// the request already timed out or failed
			Logger.Debugf("response for unknown request ID %d from %s", requestID, c.endpoint)
			continue
		}
		future.Complete(data)
	}
}

// linkBroken drops a failed link, fails its pending requests and starts reconnecting.
// It is a no-op if the link was already replaced or the connection is closed.
func (c *clientConnection) linkBroken(conn net.Conn, cause error) {
	c.connMu.Lock()
	if c.conn != conn {
		c.connMu.Unlock()
		return
	}
	c.conn = nil
	c.connected.Store(false)
	conn.Close()
	c.connMu.Unlock()

	c.failPending(fmt.Errorf("%w: link to %s lost: %v", transport.ErrNotConnected, c.endpoint, cause))

	if c.closed.Load() {
		return
	}
	Logger.Warningf("link to %s lost (%v), reconnecting in background", c.endpoint, cause)
	go c.reconnectLoop(false)
}

// reconnectLoop tries to establish the link until it succeeds or the connection is closed
func (c *clientConnection) reconnectLoop(immediate bool) {
	interval := c.parent.config.ReconnectInterval()
	attempt := 0

	if !immediate {
		select {
		case <-c.stopCh:
			return
		case <-time.After(interval):
		}
	}

	for {
		attempt++
		err := c.dial()
		if err == nil {
			Logger.Infof("connected to %s after %d background attempt(s)", c.endpoint, attempt)
			return
		}
		Logger.Debugf("background connect to %s failed (attempt %d): %v", c.endpoint, attempt, err)

		select {
		case <-c.stopCh:
			return
		case <-time.After(interval):
		}
	}
}

func (c *clientConnection) failRequest(requestID uint64, err error) {
	if future, found := c.pending.LoadAndDelete(requestID); found {
		future.Fail(err)
	}
}

func (c *clientConnection) failPending(err error) {
	c.pending.Range(func(requestID uint64, _ *transport.Future[[]byte]) bool {
		c.failRequest(requestID, err)
		return true
	})
}
