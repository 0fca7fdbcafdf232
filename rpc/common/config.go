package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultTimeoutSecond                = 5
	DefaultConnectRetryCount            = 3
	DefaultQueueSize                    = 1024 * 5
	DefaultRetryCount                   = 3
	DefaultRetryDelayMillisecond        = 1000 * 10
	DefaultReconnectIntervalMillisecond = 1000 * 3
	DefaultMaxPacketSize                = 1024 * 64
	DefaultLogLevel                     = "info"
)

// --------------------------------------------------------------------------
// Socket configuration structs (shared by client and server)
// --------------------------------------------------------------------------

// SocketConf holds the socket buffer sizes (in bytes, 0 = os default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// ClientTransportConfig holds the transport parameters of the client
type ClientTransportConfig struct {
	SocketConf
	TCPConf

	// ReconnectIntervalMillisecond is the pause between two background reconnect attempts
	ReconnectIntervalMillisecond int
}

// ServerTransportConfig holds the transport parameters of the server
type ServerTransportConfig struct {
	SocketConf
	TCPConf

	// WorkersPerConn limits the concurrently handled requests per connection
	WorkersPerConn int
}

// --------------------------------------------------------------------------
// Sender (client) configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all parameters of a data sender.
type ClientConfig struct {
	// Endpoint of the collector (host:port for tcp, socket path for unix)
	Endpoint string

	// TimeoutSecond bounds dial, write and request round trips
	TimeoutSecond int

	// ConnectRetryCount is the number of synchronous connect attempts
	// before the sender falls back to background reconnection
	ConnectRetryCount int

	// QueueSize is the capacity of the async queueing pipeline
	QueueSize int

	// RetryCount is the default retry budget of request messages
	RetryCount int

	// RetryDelayMillisecond is the delay between arming and running a retry cycle
	RetryDelayMillisecond int

	// MaxPacketSize is the largest serialized message the sender will transmit
	MaxPacketSize int

	Transport ClientTransportConfig

	// Logging configuration
	LogLevel string
}

// DefaultClientConfig returns a client configuration with all defaults set
func DefaultClientConfig(endpoint string) ClientConfig {
	return ClientConfig{
		Endpoint:              endpoint,
		TimeoutSecond:         DefaultTimeoutSecond,
		ConnectRetryCount:     DefaultConnectRetryCount,
		QueueSize:             DefaultQueueSize,
		RetryCount:            DefaultRetryCount,
		RetryDelayMillisecond: DefaultRetryDelayMillisecond,
		MaxPacketSize:         DefaultMaxPacketSize,
		Transport: ClientTransportConfig{
			TCPConf: TCPConf{
				TCPNoDelay: true,
			},
			ReconnectIntervalMillisecond: DefaultReconnectIntervalMillisecond,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Validate checks that the configuration can be used to build a sender
func (c *ClientConfig) Validate() error {
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("endpoint must not be empty"))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue size must be positive, got %d", c.QueueSize))
	}
	if c.ConnectRetryCount < 0 {
		errs = append(errs, fmt.Errorf("connect retry count must not be negative, got %d", c.ConnectRetryCount))
	}
	if c.RetryCount < 0 {
		errs = append(errs, fmt.Errorf("retry count must not be negative, got %d", c.RetryCount))
	}
	if c.MaxPacketSize <= 0 {
		errs = append(errs, fmt.Errorf("max packet size must be positive, got %d", c.MaxPacketSize))
	}
	return errors.Join(errs...)
}

// Timeout returns TimeoutSecond as a duration (0 = no timeout)
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// RetryDelay returns RetryDelayMillisecond as a duration
func (c *ClientConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillisecond) * time.Millisecond
}

// ReconnectInterval returns the background reconnect interval, never less than 10ms
func (c *ClientConfig) ReconnectInterval() time.Duration {
	interval := time.Duration(c.Transport.ReconnectIntervalMillisecond) * time.Millisecond
	if interval < 10*time.Millisecond {
		return 10 * time.Millisecond
	}
	return interval
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General sender settings
	addSection("Sender Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Connect Retry Count", strconv.Itoa(c.ConnectRetryCount))
	addField("Queue Size", strconv.Itoa(c.QueueSize))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Retry Delay", c.RetryDelay().String())
	addField("Max Packet Size", fmt.Sprintf("%d bytes", c.MaxPacketSize))

	// Transport
	addSection("Transport")
	addField("Reconnect Interval", c.ReconnectInterval().String())
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Collector (server) configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the collector server.
type ServerConfig struct {
	// Endpoint the server listens on (host:port for tcp, socket path for unix)
	Endpoint string

	// TimeoutSecond bounds response writes (0 = no timeout)
	TimeoutSecond int64

	// RejectEvery makes the collector answer every n-th request with a failed
	// Result (0 = never), used to exercise the retry path of senders
	RejectEvery int

	Transport ServerTransportConfig

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("Collector")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	if c.RejectEvery > 0 {
		addField("Reject Every", fmt.Sprintf("%d requests", c.RejectEvery))
	} else {
		addField("Reject Every", "never")
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
