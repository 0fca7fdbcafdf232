package serializer

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/dSend/rpc/common"
	"reflect"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTResult},

		// Span (fire-and-forget)
		{
			MsgType:   common.MsgTSpan,
			Key:       "agent-1",
			Timestamp: 1700000000000,
			Value:     []byte("span-payload"),
		},

		// Successful result
		{
			MsgType: common.MsgTResult,
			Ok:      true,
		},

		// Failed result
		{
			MsgType: common.MsgTResult,
			Err:     "collector busy",
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Message with all fields filled
		{
			MsgType:   common.MsgTAgentInfo,
			Key:       "agent-1",
			Timestamp: 1700000000123,
			Value:     []byte("agent-info"),
			Ok:        true,
			Err:       "not really an error",
			Meta:      []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, msg, result)
				}
			}
		})
	}
}

// TestDeserializeResetsTarget checks that fields of a reused message do not leak into the next one
func TestDeserializeResetsTarget(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(common.Message{MsgType: common.MsgTResult, Ok: true})
			if err != nil {
				t.Fatal(err)
			}

			result := common.Message{Key: "stale", Err: "stale", Value: []byte("stale")}
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatal(err)
			}
			if result.Key != "" || result.Err != "" || result.Value != nil {
				t.Errorf("stale fields survived deserialization: %+v", result)
			}
			if !result.Ok || result.MsgType != common.MsgTResult {
				t.Errorf("unexpected result %+v", result)
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTResult; msgType <= common.MsgTCustom; msgType++ {
				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType, err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s", msgType, result.MsgType)
				}
			}
		})
	}
}

// TestBinaryEmptySlices checks that empty but non-nil slices survive the binary format
func TestBinaryEmptySlices(t *testing.T) {
	serializer := NewBinarySerializer()

	msg := common.Message{MsgType: common.MsgTCustom, Value: []byte{}, Meta: []byte{}}
	data, err := serializer.Serialize(msg)
	if err != nil {
		t.Fatal(err)
	}

	var result common.Message
	if err := serializer.Deserialize(data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Value == nil || len(result.Value) != 0 {
		t.Errorf("expected empty non-nil value, got %#v", result.Value)
	}
	if result.Meta == nil || len(result.Meta) != 0 {
		t.Errorf("expected empty non-nil meta, got %#v", result.Meta)
	}
}

// TestBinarySizeBytes checks the precomputed size matches the encoded size
func TestBinarySizeBytes(t *testing.T) {
	serializer := NewBinarySerializer()
	sizer, ok := serializer.(ISizer)
	if !ok {
		t.Fatal("binary serializer should implement ISizer")
	}

	for i, msg := range testMessages() {
		data, err := serializer.Serialize(msg)
		if err != nil {
			t.Fatal(err)
		}
		if got := sizer.SizeBytes(msg); got != len(data) {
			t.Errorf("message %d: SizeBytes=%d, encoded=%d", i, got, len(data))
		}
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{"Empty data", []byte{}, true},
		{"Too short header", []byte{1}, true},
		{"Valid header only", []byte{1, 0}, false},
		{"Invalid length for key", []byte{1, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'}, true},
		{"Invalid length for value", []byte{1, hasValue, 0, 0, 0, 10}, true},
		{"Truncated timestamp", []byte{1, hasTimestamp, 0, 0, 0}, true},
		{"Missing ok byte", []byte{1, hasOk}, true},
		{"Trailing bytes", []byte{1, 0, 42}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestBoundedSerializer tests the maximum packet size guard
func TestBoundedSerializer(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			inner := factory()
			small := common.Message{MsgType: common.MsgTSpan, Key: "k", Value: []byte("v")}

			encoded, err := inner.Serialize(small)
			if err != nil {
				t.Fatal(err)
			}

			bounded := NewBoundedSerializer(inner, len(encoded))

			data, err := bounded.Serialize(small)
			if err != nil {
				t.Fatalf("message at the limit rejected: %v", err)
			}
			if !bytes.Equal(data, encoded) {
				t.Error("bounded serializer changed the encoding")
			}

			large := common.Message{MsgType: common.MsgTSpan, Key: "k", Value: bytes.Repeat([]byte("x"), 1024)}
			data, err = bounded.Serialize(large)
			if !errors.Is(err, ErrMessageTooLarge) {
				t.Fatalf("expected ErrMessageTooLarge, got %v", err)
			}
			if data != nil {
				t.Errorf("expected no output for oversize message, got %d bytes", len(data))
			}

			var result common.Message
			if err := bounded.Deserialize(encoded, &result); err != nil {
				t.Fatalf("Deserialize through bounded serializer failed: %v", err)
			}
			if !reflect.DeepEqual(small, result) {
				t.Errorf("round trip mismatch: %+v != %+v", small, result)
			}
		})
	}
}
