package server

import (
	"github.com/ValentinKolb/dSend/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// If an error occurs, it should be set in the response
	Handle(req *common.Message) (resp *common.Message)
	// HandleOneway handles a fire-and-forget message, nothing is sent back
	HandleOneway(msg *common.Message)
}

// IRPCServer is a running collector
type IRPCServer interface {
	// Serve starts the transport and blocks until Close is called
	Serve() error
	// Close stops the server
	Close() error
}
