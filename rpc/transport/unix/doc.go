// Package unix implements a transport for dSend using Unix domain sockets.
// It is meant for a sender and a collector running on the same machine.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners. A stale socket file of a
//     previous run is removed before listening.
//
// The default server buffer size is 64 KB.
package unix
