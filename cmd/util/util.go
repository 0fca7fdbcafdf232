package util

import (
	"fmt"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/serializer"
	"github.com/ValentinKolb/dSend/rpc/transport"
	"github.com/ValentinKolb/dSend/rpc/transport/tcp"
	"github.com/ValentinKolb/dSend/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. DSEND_ENDPOINT)
	EnvPrefix = "dsend"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and lets viper read DSEND_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Sender (client) configuration
// --------------------------------------------------------------------------

// SetupSenderFlags adds the data sender flags to a command
func SetupSenderFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "localhost:9994", WrapString("The address of the collector (host:port for tcp, socket path for unix)"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, common.DefaultTimeoutSecond, WrapString("Timeout in seconds for connecting, writing and waiting for responses"))

	key = "connect-retries"
	cmd.PersistentFlags().Int(key, common.DefaultConnectRetryCount, WrapString("Synchronous connect attempts before the sender connects in the background"))

	key = "queue-size"
	cmd.PersistentFlags().Int(key, common.DefaultQueueSize, WrapString("Capacity of the send queue, messages are rejected when it is full"))

	key = "retries"
	cmd.PersistentFlags().Int(key, common.DefaultRetryCount, WrapString("How many times a failed request is retried"))

	key = "retry-delay"
	cmd.PersistentFlags().Int(key, common.DefaultRetryDelayMillisecond, WrapString("Delay in milliseconds before failed requests are retried"))

	key = "max-packet-size"
	cmd.PersistentFlags().Int(key, common.DefaultMaxPacketSize, WrapString("Largest serialized message in bytes, larger messages are dropped"))

	key = "reconnect-interval"
	cmd.PersistentFlags().Int(key, common.DefaultReconnectIntervalMillisecond, WrapString("Pause in milliseconds between two background reconnect attempts"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 = os default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 = os default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time (in seconds, only for tcp)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, common.DefaultLogLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// GetClientConfig reads the sender configuration from viper
func GetClientConfig() common.ClientConfig {
	return common.ClientConfig{
		Endpoint:              viper.GetString("endpoint"),
		TimeoutSecond:         viper.GetInt("timeout"),
		ConnectRetryCount:     viper.GetInt("connect-retries"),
		QueueSize:             viper.GetInt("queue-size"),
		RetryCount:            viper.GetInt("retries"),
		RetryDelayMillisecond: viper.GetInt("retry-delay"),
		MaxPacketSize:         viper.GetInt("max-packet-size"),
		Transport: common.ClientTransportConfig{
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
			},
			ReconnectIntervalMillisecond: viper.GetInt("reconnect-interval"),
		},
		LogLevel: viper.GetString("log-level"),
	}
}

// --------------------------------------------------------------------------
// Serializer and transport selection
// --------------------------------------------------------------------------

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	return NewSerializer(viper.GetString("serializer"))
}

// NewSerializer creates a serializer by name (json, gob, binary)
func NewSerializer(name string) (serializer.IRPCSerializer, error) {
	switch name {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", name)
	}
}

// GetClientTransport creates the client transport based on configuration
func GetClientTransport(config common.ClientConfig) (transport.IRPCClientTransport, error) {
	switch name := viper.GetString("transport"); name {
	case "tcp":
		return tcp.NewTCPClientTransport(config), nil
	case "unix":
		return unix.NewUnixClientTransport(config), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", name)
	}
}

// GetServerTransport creates the server transport based on configuration
func GetServerTransport(bufferSize int) (transport.IRPCServerTransport, error) {
	switch name := viper.GetString("transport"); name {
	case "tcp":
		return tcp.NewTCPServerTransport(bufferSize), nil
	case "unix":
		return unix.NewUnixServerTransport(bufferSize), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", name)
	}
}
