package tcp

import (
	"github.com/ValentinKolb/dSend/rpc/common"
	"net"
	"time"
)

// applySocketOptions applies performance settings to a TCP connection
// using configuration values from TCPConf and SocketConf
func applySocketOptions(conn net.Conn, sock common.SocketConf, opts common.TCPConf) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm if configured
	if err := tcpConn.SetNoDelay(opts.TCPNoDelay); err != nil {
		return err
	}

	if sock.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(sock.WriteBufferSize); err != nil {
			return err
		}
	}

	if sock.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(sock.ReadBufferSize); err != nil {
			return err
		}
	}

	if opts.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(opts.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	// 0 keeps the os default (graceful close)
	if opts.TCPLingerSec > 0 {
		if err := tcpConn.SetLinger(opts.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
