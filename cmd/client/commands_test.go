package client

import (
	"github.com/ValentinKolb/dSend/rpc/common"
	"testing"
	"time"
)

func TestParseMessageType(t *testing.T) {
	tests := []struct {
		name    string
		want    common.MessageType
		wantErr bool
	}{
		{"span", common.MsgTSpan, false},
		{"stat", common.MsgTStat, false},
		{"agentInfo", common.MsgTAgentInfo, false},
		{"metaData", common.MsgTMetaData, false},
		{"custom", common.MsgTCustom, false},
		{"result", common.MsgTUnknown, true},
		{"error", common.MsgTUnknown, true},
		{"unknown", common.MsgTUnknown, true},
		{"trace", common.MsgTUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMessageType(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMessageType(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseMessageType(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage([]string{"span", "payload", "agent-1"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.MsgType != common.MsgTSpan || msg.Key != "agent-1" || string(msg.Value) != "payload" {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.Timestamp == 0 {
		t.Error("timestamp not set")
	}

	// missing key gets a random one
	a, _ := buildMessage([]string{"stat", "x"})
	b, _ := buildMessage([]string{"stat", "x"})
	if a.Key == "" || a.Key == b.Key {
		t.Errorf("expected distinct generated keys, got %q and %q", a.Key, b.Key)
	}
}

func TestLingerDuration(t *testing.T) {
	config := common.DefaultClientConfig("collector.sock")

	tests := []struct {
		name       string
		linger     int
		retryCount int
		want       time.Duration
	}{
		{"explicit", 2, 3, 2 * time.Second},
		{"zero stops at once", 0, 3, 0},
		{"derived from retries", -1, 3, 3*(10*time.Second+5*time.Second) + time.Second},
		{"derived without retries", -1, 0, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config
			c.RetryCount = tt.retryCount
			if got := lingerDuration(tt.linger, c); got != tt.want {
				t.Errorf("lingerDuration(%d) = %s, want %s", tt.linger, got, tt.want)
			}
		})
	}
}
