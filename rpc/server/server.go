package server

import (
	"fmt"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/serializer"
	"github.com/ValentinKolb/dSend/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"os/signal"
	"runtime"
	"syscall"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server that decodes incoming payloads and
// passes them to the adapter.
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewBinarySerializer(),
//		server.NewCollectorAdapter(0),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	adapter IRPCServerAdapter,
) IRPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter:    adapter,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see server.IRPCServer)
// --------------------------------------------------------------------------

func (s *rpcServer) Serve() error {
	s.transport.RegisterHandler(s.handle)
	return s.transport.Listen(s.config)
}

func (s *rpcServer) Close() error {
	return s.transport.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handle is the transport.ServerHandleFunc of the server
func (s *rpcServer) handle(req []byte, oneway bool) []byte {
	var msg common.Message

	if err := s.serializer.Deserialize(req, &msg); err != nil {
		if oneway {
			Logger.Warningf("dropping undecodable message: %v", err)
			return nil
		}
		return s.encode(common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err)))
	}

	if oneway {
		s.adapter.HandleOneway(&msg)
		return nil
	}
	return s.encode(s.adapter.Handle(&msg))
}

func (s *rpcServer) encode(resp *common.Message) []byte {
	if resp == nil {
		resp = common.NewErrorResponse("adapter returned no response")
	}

	val, err := s.serializer.Serialize(*resp)
	if err != nil {
		Logger.Errorf("failed to serialize %s response: %v", resp.MsgType, err)
		// the error response is small enough to always serialize
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}
