package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/transport"
	"io"
	"net"
	"sync"
	"time"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	bufferPool *sync.Pool

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with a per-connection worker pool.
// Read buffers of bufferSize bytes are pooled and reused across frames.
func NewBaseServerTransport(connector IServerConnector, bufferSize int) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		conns:     make(map[net.Conn]struct{}),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		listener.Close()
		return nil
	}
	t.config = config
	t.listener = listener
	t.mu.Unlock()

	Logger.Infof("starting %s server on %s with %d workers per connection",
		t.connector.GetName(), config.Endpoint, t.workersPerConn())

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				t.wg.Wait()
				return nil
			}
			Logger.Errorf("accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Warningf("failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		if !t.track(conn) {
			conn.Close()
			continue
		}

		t.wg.Add(1)
		go t.handleConnection(conn)
	}
}

func (t *serverTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	listener := t.listener
	for conn := range t.conns {
		conn.Close()
	}
	t.mu.Unlock()

	if listener != nil {
		return listener.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) workersPerConn() int {
	// minimum one worker per connection
	return max(t.config.Transport.WorkersPerConn, 1)
}

func (t *serverTransport) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.conns[conn] = struct{}{}
	return true
}

func (t *serverTransport) untrack(conn net.Conn) {
	t.mu.Lock()
	delete(t.conns, conn)
	t.mu.Unlock()
}

// handleConnection reads frames of one connection until it is closed.
// Send frames are handled inline (preserving their order), request frames
// are handled by a bounded set of worker goroutines.
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer t.wg.Done()
	defer t.untrack(conn)
	defer conn.Close()

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	// The buffered channel acts as a counting semaphore
	workerSemaphore := make(chan struct{}, t.workersPerConn())
	var workers sync.WaitGroup
	var writeMu sync.Mutex

	respond := func(requestID uint64, data []byte, buf []byte) {
		defer func() {
			t.bufferPool.Put(buf)
			<-workerSemaphore
			workers.Done()
		}()

		start := time.Now()
		resp := t.handler(data, false)
		Logger.Debugf("processed request %d in %s", requestID, time.Since(start))

		writeMu.Lock()
		defer writeMu.Unlock()

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("failed to set write deadline: %v", err)
				return
			}
		}
		if err := writeFrame(conn, frameResponse, requestID, resp); err != nil {
			Logger.Errorf("failed to write response %d: %v", requestID, err)
		}
	}

	for {
		buf := t.bufferPool.Get().([]byte)
		typ, requestID, data, err := readFrame(conn, buf)
		if err != nil {
			t.bufferPool.Put(buf)
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				Logger.Debugf("connection from %s closed", conn.RemoteAddr())
			} else {
				Logger.Warningf("error reading from %s: %v", conn.RemoteAddr(), err)
			}
			break
		}

		switch typ {
		case frameSend:
			t.handler(data, true)
			t.bufferPool.Put(buf)
		case frameRequest:
			// blocks if all workers of this connection are busy
			workerSemaphore <- struct{}{}
			workers.Add(1)
			go respond(requestID, data, buf)
		default:
			Logger.Warningf("unexpected %s frame from %s, ignored", typ, conn.RemoteAddr())
			t.bufferPool.Put(buf)
		}
	}

	// in-flight workers finish before the connection is closed
	workers.Wait()
}
