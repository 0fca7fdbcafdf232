package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectFailed marks every failed connection attempt
	ErrConnectFailed = errors.New("connect failed")
	// ErrNotConnected is returned for writes on a connection whose link is not (yet) live
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionClosed is returned for writes and pending requests of a closed connection
	ErrConnectionClosed = errors.New("connection closed")
	// ErrRequestTimeout is returned if no response arrived within the request timeout
	ErrRequestTimeout = errors.New("request timed out")
	// ErrTransportReleased is returned by Connect after Release
	ErrTransportReleased = errors.New("transport released")
)

// ConnectError describes a failed connection attempt
type ConnectError struct {
	Transport string
	Endpoint  string
	Err       error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s: failed to connect to %s: %v", e.Transport, e.Endpoint, e.Err)
}

// Unwrap makes both ErrConnectFailed and the cause visible to errors.Is / errors.As
func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnectFailed, e.Err}
}
