package serializer

import (
	"fmt"
	"github.com/ValentinKolb/dSend/rpc/common"
)

// NewBoundedSerializer wraps a serializer and rejects every message whose
// encoded form is larger than maxSize bytes with ErrMessageTooLarge.
// Oversize messages never produce partial output.
func NewBoundedSerializer(inner IRPCSerializer, maxSize int) IRPCSerializer {
	return &boundedSerializerImpl{inner: inner, maxSize: maxSize}
}

// boundedSerializerImpl enforces a maximum packet size on top of another serializer
type boundedSerializerImpl struct {
	inner   IRPCSerializer
	maxSize int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (s *boundedSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// avoid encoding at all if the size is known upfront
	if sizer, ok := s.inner.(ISizer); ok {
		if size := sizer.SizeBytes(msg); size > s.maxSize {
			return nil, s.tooLarge(msg, size)
		}
	}

	data, err := s.inner.Serialize(msg)
	if err != nil {
		return nil, err
	}
	if len(data) > s.maxSize {
		return nil, s.tooLarge(msg, len(data))
	}
	return data, nil
}

func (s *boundedSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	return s.inner.Deserialize(b, msg)
}

func (s *boundedSerializerImpl) tooLarge(msg common.Message, size int) error {
	Logger.Warningf("%s message (key=%q) is %d bytes, limit is %d bytes", msg.MsgType, msg.Key, size, s.maxSize)
	return fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, size, s.maxSize)
}
