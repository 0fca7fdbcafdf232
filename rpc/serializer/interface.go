package serializer

import (
	"errors"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("serializer")

// ErrMessageTooLarge is returned when a serialized message exceeds the configured bound
var ErrMessageTooLarge = errors.New("message exceeds maximum packet size")

// IRPCSerializer is the interface for all Message Serializers
type IRPCSerializer interface {
	// Serialize serializes a Message into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// It takes a byte array and a pointer to a Message as parameters
	// It returns an error if any
	Deserialize(b []byte, msg *common.Message) error
}

// ISizer is implemented by serializers that can compute the encoded size of a
// message without encoding it
type ISizer interface {
	SizeBytes(msg common.Message) int
}
