package common

import (
	"encoding/json"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single application message sent to the collector and
// the response the collector returns for requests.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key       string `json:"key,omitempty"`       // Identifies the producer (agent id, metric name, ...)
	Timestamp uint64 `json:"timestamp,omitempty"` // Unix milliseconds at creation time
	Value     []byte `json:"value,omitempty"`     // Payload of data messages

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Result responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Free form, can be used by custom adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

func now() uint64 {
	return uint64(time.Now().UnixMilli())
}

// NewSpanMessage creates a new Span message (usually sent fire-and-forget)
func NewSpanMessage(key string, value []byte) *Message {
	return &Message{
		MsgType:   MsgTSpan,
		Key:       key,
		Timestamp: now(),
		Value:     value,
	}
}

// NewStatMessage creates a new Stat message (usually sent fire-and-forget)
func NewStatMessage(key string, value []byte) *Message {
	return &Message{
		MsgType:   MsgTStat,
		Key:       key,
		Timestamp: now(),
		Value:     value,
	}
}

// NewAgentInfoMessage creates a new AgentInfo message (usually sent as a request)
func NewAgentInfoMessage(key string, value []byte) *Message {
	return &Message{
		MsgType:   MsgTAgentInfo,
		Key:       key,
		Timestamp: now(),
		Value:     value,
	}
}

// NewMetaDataMessage creates a new MetaData message (usually sent as a request)
func NewMetaDataMessage(key string, value []byte) *Message {
	return &Message{
		MsgType:   MsgTMetaData,
		Key:       key,
		Timestamp: now(),
		Value:     value,
	}
}

// NewCustomMessage creates a new Custom message
func NewCustomMessage(meta []byte) *Message {
	return &Message{
		MsgType:   MsgTCustom,
		Timestamp: now(),
		Meta:      meta,
	}
}

// NewResultResponse creates a new Result response.
// A Result with Ok=false signals a logical failure that the sender may retry.
func NewResultResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTResult,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTResult:
		return "result"
	case MsgTError:
		return "error"
	case MsgTSpan:
		return "span"
	case MsgTStat:
		return "stat"
	case MsgTAgentInfo:
		return "agentInfo"
	case MsgTMetaData:
		return "metaData"
	case MsgTCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// IsResponse reports whether the type is only ever sent by the collector.
func (t MessageType) IsResponse() bool {
	return t == MsgTResult || t == MsgTError
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "result":
		*t = MsgTResult
	case "error":
		*t = MsgTError
	case "span":
		*t = MsgTSpan
	case "stat":
		*t = MsgTStat
	case "agentInfo":
		*t = MsgTAgentInfo
	case "metaData":
		*t = MsgTMetaData
	case "custom":
		*t = MsgTCustom
	case "unknown":
		*t = MsgTUnknown
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// Response message types

	MsgTUnknown MessageType = iota
	MsgTResult              // Acknowledges a request, Ok=false signals a logical failure
	MsgTError               // The collector could not process the request at all

	// Data message types

	MsgTSpan      // Trace span
	MsgTStat      // Periodic statistics
	MsgTAgentInfo // Agent registration
	MsgTMetaData  // Api/sql/string metadata

	// Custom operations

	MsgTCustom // Custom message type
)
