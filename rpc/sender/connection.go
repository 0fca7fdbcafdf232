package sender

import (
	"github.com/ValentinKolb/dSend/rpc/transport"
	"sync"
	"time"
)

// connectionManager owns the single connection of a sender
type connectionManager struct {
	transport transport.IRPCClientTransport
	conn      transport.IRPCConnection
	metrics   *senderMetrics
	closeOnce sync.Once
}

// newConnectionManager tries to connect synchronously connectRetryCount times.
// If every attempt fails it falls back to a background connection, so it
// never fails and never blocks longer than the attempts take.
func newConnectionManager(t transport.IRPCClientTransport, endpoint string, connectRetryCount int, metrics *senderMetrics) *connectionManager {
	m := &connectionManager{transport: t, metrics: metrics}

	for attempt := 1; attempt <= connectRetryCount; attempt++ {
		conn, err := t.Connect(endpoint)
		if err == nil {
			Logger.Infof("connected to %s (attempt %d/%d)", endpoint, attempt, connectRetryCount)
			m.conn = conn
			return m
		}
		metrics.connectFailures.Inc()
		Logger.Warningf("connect to %s failed (attempt %d/%d): %v", endpoint, attempt, connectRetryCount, err)
	}

	Logger.Warningf("could not connect to %s, connecting in background", endpoint)
	m.conn = t.ScheduledConnect(endpoint)
	return m
}

// sendAsync writes a fire-and-forget packet. Write failures are logged, never retried.
func (m *connectionManager) sendAsync(packet []byte) {
	m.conn.SendAsync(packet).OnComplete(func(f *transport.Future[struct{}]) {
		if f.IsSuccess() {
			return
		}
		m.metrics.sendFailures.Inc()
		Logger.Warningf("write to %s failed: %v", m.conn.Endpoint(), f.Cause())
	})
}

// request writes a request packet, the caller attaches the completion listener
func (m *connectionManager) request(packet []byte) *transport.Future[[]byte] {
	return m.conn.Request(packet)
}

// newTimeout runs task once after delay on a transport timer
func (m *connectionManager) newTimeout(delay time.Duration, task func()) {
	m.transport.NewTimeout(delay, task)
}

// close closes the connection and releases the transport. It is idempotent.
func (m *connectionManager) close() {
	m.closeOnce.Do(func() {
		if err := m.conn.Close(); err != nil {
			Logger.Warningf("closing connection to %s: %v", m.conn.Endpoint(), err)
		}
		m.transport.Release()
	})
}
