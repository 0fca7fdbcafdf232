// Package server implements the collector side of dSend: it receives the
// payloads written by data senders, decodes them and hands them to an adapter.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters.
//     Handle answers requests, HandleOneway consumes fire-and-forget messages.
//
//   - NewCollectorAdapter: Factory function creating an adapter that counts
//     received messages per type and acknowledges requests with a Result. It can
//     reject every n-th request with a failed Result, which makes senders run
//     their retry path.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport, serializer and adapter.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Endpoint: "0.0.0.0:9994",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	  server.NewCollectorAdapter(0),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Adapters are called concurrently from all connections and must be thread-safe.
//	The collector adapter uses xsync counters for this. Serve should be called only once.
package server
