// Package tcp implements the TCP socket transport for dSend. It provides
// concrete implementations of the base package's connector interfaces.
//
// All framing, request correlation and reconnection logic lives in the base
// package. This package only dials, listens and applies socket options
// (TCP_NODELAY, keep-alive, linger and buffer sizes, see common.TCPConf).
//
// The default server buffer size is 512 KB.
package tcp
