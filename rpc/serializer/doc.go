// Package serializer provides message serialization for the dSend wire
// protocol. It defines a common interface and multiple implementations for
// turning common.Message values into payload bytes and back.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format optimized for speed and space.
//     A flag byte marks which optional fields are present, so only those are encoded.
//     It also implements ISizer, so the encoded size is known before encoding.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging or interoperability.
//
//   - gobSerializerImpl: Go's gob encoding. Larger and slower than binary, kept for comparison.
//
//   - boundedSerializerImpl: Wraps any serializer and fails closed with
//     ErrMessageTooLarge if a message exceeds the configured maximum packet size.
//     No partial output is ever returned.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	s := serializer.NewBoundedSerializer(serializer.NewBinarySerializer(), 64*1024)
//	data, err := s.Serialize(message)
//	if errors.Is(err, serializer.ErrMessageTooLarge) {
//	    // drop the message
//	}
package serializer
