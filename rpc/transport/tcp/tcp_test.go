package tcp

import (
	"context"
	"errors"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/transport"
	"net"
	"sync"
	"testing"
	"time"
)

// freeAddr returns a local address that is free at the time of the call
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func startServer(t *testing.T, addr string, handler transport.ServerHandleFunc) {
	t.Helper()

	srv := NewTCPDefaultServerTransport()
	srv.RegisterHandler(handler)

	config := common.ServerConfig{Endpoint: addr, TimeoutSecond: 5}
	config.Transport.TCPNoDelay = true
	config.Transport.WorkersPerConn = 4

	done := make(chan error, 1)
	go func() { done <- srv.Listen(config) }()
	t.Cleanup(func() {
		srv.Close()
		<-done
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("tcp", addr); err == nil {
			conn.Close()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("server on %s did not come up", addr)
}

func TestConcurrentRequests(t *testing.T) {
	addr := freeAddr(t)
	startServer(t, addr, func(req []byte, _ bool) []byte { return req })

	config := common.DefaultClientConfig(addr)
	config.Transport.TCPKeepAliveSec = 30
	client := NewTCPClientTransport(config)
	defer client.Release()

	conn, err := client.Connect(addr)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := []byte{byte(i)}

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			resp, err := conn.Request(payload).Await(ctx)
			if err != nil {
				errs <- err
				return
			}
			if len(resp) != 1 || resp[0] != byte(i) {
				errs <- errors.New("response correlated to the wrong request")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestConnectRefused(t *testing.T) {
	addr := freeAddr(t)
	config := common.DefaultClientConfig(addr)
	config.TimeoutSecond = 1
	client := NewTCPClientTransport(config)
	defer client.Release()

	if _, err := client.Connect(addr); !errors.Is(err, transport.ErrConnectFailed) {
		t.Fatalf("expected ErrConnectFailed, got %v", err)
	}
}

func TestReconnectAfterServerRestart(t *testing.T) {
	addr := freeAddr(t)

	srv := NewTCPDefaultServerTransport()
	srv.RegisterHandler(func(req []byte, _ bool) []byte { return req })
	done := make(chan error, 1)
	go func() { done <- srv.Listen(common.ServerConfig{Endpoint: addr}) }()

	config := common.DefaultClientConfig(addr)
	config.TimeoutSecond = 1
	config.Transport.ReconnectIntervalMillisecond = 20
	client := NewTCPClientTransport(config)
	defer client.Release()

	var conn transport.IRPCConnection
	var err error
	for i := 0; i < 100; i++ {
		if conn, err = client.Connect(addr); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// kill the server, the link breaks
	srv.Close()
	<-done

	deadline := time.After(2 * time.Second)
	for conn.IsConnected() {
		select {
		case <-deadline:
			t.Fatal("connection did not notice the server shutdown")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// bring it back, the connection recovers by itself
	startServer(t, addr, func(req []byte, _ bool) []byte { return append(req, '!') })

	deadline = time.After(3 * time.Second)
	for !conn.IsConnected() {
		select {
		case <-deadline:
			t.Fatal("connection did not recover")
		case <-time.After(10 * time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := conn.Request([]byte("hi")).Await(ctx)
	if err != nil || string(resp) != "hi!" {
		t.Fatalf("expected hi!, got %q (%v)", resp, err)
	}
}
