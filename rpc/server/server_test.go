package server

import (
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/serializer"
	"github.com/ValentinKolb/dSend/rpc/transport"
	"strings"
	"testing"
)

// fakeServerTransport captures the registered handler
type fakeServerTransport struct {
	handler transport.ServerHandleFunc
}

func (f *fakeServerTransport) RegisterHandler(h transport.ServerHandleFunc) { f.handler = h }
func (f *fakeServerTransport) Listen(common.ServerConfig) error             { return nil }
func (f *fakeServerTransport) Close() error                                 { return nil }

func newTestServer(t *testing.T, adapter IRPCServerAdapter) (*fakeServerTransport, serializer.IRPCSerializer) {
	t.Helper()
	ft := &fakeServerTransport{}
	s := serializer.NewBinarySerializer()
	srv := NewRPCServer(common.ServerConfig{Endpoint: "test"}, ft, s, adapter)
	if err := srv.Serve(); err != nil {
		t.Fatal(err)
	}
	if ft.handler == nil {
		t.Fatal("Serve did not register a handler")
	}
	return ft, s
}

func roundTrip(t *testing.T, ft *fakeServerTransport, s serializer.IRPCSerializer, msg *common.Message) common.Message {
	t.Helper()
	req, err := s.Serialize(*msg)
	if err != nil {
		t.Fatal(err)
	}
	var resp common.Message
	if err := s.Deserialize(ft.handler(req, false), &resp); err != nil {
		t.Fatalf("response not decodable: %v", err)
	}
	return resp
}

func TestCollectorAcknowledgesRequests(t *testing.T) {
	adapter := NewCollectorAdapter(0)
	ft, s := newTestServer(t, adapter)

	resp := roundTrip(t, ft, s, common.NewAgentInfoMessage("agent", []byte("info")))
	if resp.MsgType != common.MsgTResult || !resp.Ok {
		t.Fatalf("expected successful result, got %+v", resp)
	}
	if adapter.Received(common.MsgTAgentInfo) != 1 {
		t.Errorf("expected 1 agent info, got %d", adapter.Received(common.MsgTAgentInfo))
	}
}

func TestCollectorRejectEvery(t *testing.T) {
	adapter := NewCollectorAdapter(3)
	ft, s := newTestServer(t, adapter)

	var results []bool
	for i := 0; i < 6; i++ {
		resp := roundTrip(t, ft, s, common.NewMetaDataMessage("sql", []byte("select 1")))
		results = append(results, resp.Ok)
	}

	want := []bool{true, true, false, true, true, false}
	for i := range want {
		if results[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, results)
		}
	}
	if adapter.Rejected() != 2 || adapter.Requests() != 6 {
		t.Errorf("expected 6 requests / 2 rejected, got %d / %d", adapter.Requests(), adapter.Rejected())
	}
	if adapter.Received(common.MsgTMetaData) != 4 {
		t.Errorf("rejected requests must not be counted as received, got %d", adapter.Received(common.MsgTMetaData))
	}
}

func TestCollectorOneway(t *testing.T) {
	adapter := NewCollectorAdapter(1)
	ft, s := newTestServer(t, adapter)

	for i := 0; i < 5; i++ {
		data, _ := s.Serialize(*common.NewSpanMessage("agent", []byte{byte(i)}))
		if resp := ft.handler(data, true); resp != nil {
			t.Fatal("oneway messages must not produce a response")
		}
	}

	// rejectEvery only applies to requests
	if adapter.Received(common.MsgTSpan) != 5 {
		t.Errorf("expected 5 spans, got %d", adapter.Received(common.MsgTSpan))
	}
	if !strings.Contains(adapter.String(), "span=5") {
		t.Errorf("unexpected summary %q", adapter.String())
	}
}

func TestServerErrorResponses(t *testing.T) {
	ft, s := newTestServer(t, NewCollectorAdapter(0))

	tests := []struct {
		name string
		req  []byte
	}{
		{"undecodable", []byte{1}},
		{"response type as request", func() []byte {
			b, _ := s.Serialize(*common.NewResultResponse(true, nil))
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp common.Message
			if err := s.Deserialize(ft.handler(tt.req, false), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.MsgType != common.MsgTError || resp.Err == "" {
				t.Errorf("expected error response, got %+v", resp)
			}
		})
	}

	// undecodable oneway payloads are dropped silently
	if resp := ft.handler([]byte{1}, true); resp != nil {
		t.Error("expected no response for oneway payload")
	}
}
