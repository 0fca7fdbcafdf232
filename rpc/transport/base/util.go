package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// frameType tells the receiver how to handle a frame
type frameType uint8

const (
	frameSend     frameType = iota + 1 // fire-and-forget, no response
	frameRequest                       // expects a frameResponse with the same request id
	frameResponse                      // answer to a frameRequest
)

func (t frameType) String() string {
	switch t {
	case frameSend:
		return "send"
	case frameRequest:
		return "request"
	case frameResponse:
		return "response"
	default:
		return fmt.Sprintf("frame(%d)", uint8(t))
	}
}

const (
	// headerSize is 1 byte frame type + 8 bytes request id + 4 bytes payload length
	headerSize = 13

	// MaxFrameSize is the largest payload a peer accepts
	MaxFrameSize = 16 * 1024 * 1024
)

// writeFrame writes a frame to the connection with the format:
// - 1 byte:  frame type
// - 8 bytes: requestID (uint64, big endian, 0 for send frames)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, typ frameType, requestID uint64, data []byte) error {
	if len(data) > MaxFrameSize {
		return fmt.Errorf("frame payload of %d bytes exceeds %d bytes", len(data), MaxFrameSize)
	}

	header := make([]byte, headerSize)
	header[0] = byte(typ)
	binary.BigEndian.PutUint64(header[1:9], requestID)
	binary.BigEndian.PutUint32(header[9:13], uint32(len(data)))

	// header and payload in a single writev, an empty payload adds no write
	b := net.Buffers{header}
	if len(data) > 0 {
		b = append(b, data)
	}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer.
// If the buffer is too small, a new buffer is allocated for the payload.
// The returned payload aliases buf whenever it fits.
func readFrame(conn io.Reader, buf []byte) (frameType, uint64, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return 0, 0, nil, err
	}

	typ := frameType(header[0])
	requestID := binary.BigEndian.Uint64(header[1:9])
	length := binary.BigEndian.Uint32(header[9:13])

	if typ < frameSend || typ > frameResponse {
		return 0, 0, nil, fmt.Errorf("invalid frame type %d", header[0])
	}
	if length > MaxFrameSize {
		return 0, 0, nil, fmt.Errorf("frame payload of %d bytes exceeds %d bytes", length, MaxFrameSize)
	}

	if length == 0 {
		return typ, requestID, []byte{}, nil
	}

	if len(buf) < int(length) {
		buf = make([]byte, length)
	}
	if _, err := io.ReadFull(conn, buf[:length]); err != nil {
		return 0, 0, nil, err
	}

	return typ, requestID, buf[:length], nil
}
