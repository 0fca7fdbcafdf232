package serializer

import (
	"github.com/ValentinKolb/dSend/rpc/common"
	"testing"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	return map[string]common.Message{
		"Result": {
			MsgType: common.MsgTResult,
			Ok:      true,
		},
		"SmallSpan": {
			MsgType:   common.MsgTSpan,
			Key:       "agent",
			Timestamp: 1700000000000,
			Value:     []byte("v"),
		},
		"MediumStat": {
			MsgType:   common.MsgTStat,
			Key:       "agent-with-a-longer-identifier",
			Timestamp: 1700000000000,
			Value:     make([]byte, 1024),
		},
		"LargeSpan": {
			MsgType:   common.MsgTSpan,
			Key:       "agent",
			Timestamp: 1700000000000,
			Value:     make([]byte, 1024*16),
		},
		"CompleteMessage": {
			MsgType:   common.MsgTAgentInfo,
			Key:       "complete-test-key",
			Timestamp: 1700000000000,
			Value:     []byte("test-value-data"),
			Ok:        true,
			Err:       "This is a test error message",
			Meta:      []byte("test-meta-data-for-benchmarking"),
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	for name, factory := range testSerializers {
		for msgName, msg := range benchmarkMessages() {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					data, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
					b.SetBytes(int64(len(data)))
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	for name, factory := range testSerializers {
		for msgName, msg := range benchmarkMessages() {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize %s: %v", msgName, err)
				}
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					if err := serializer.Deserialize(data, &msg); err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}
