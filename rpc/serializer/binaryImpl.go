package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dSend/rpc/common"
)

// NewBinarySerializer creates a new serializer using a compact custom binary format
//
// Layout: [type:1][flags:1] followed by every field whose flag is set, in flag order.
// Strings and byte slices are prefixed with a 4 byte big endian length.
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey       byte = 1 << 0
	hasTimestamp byte = 1 << 1
	hasValue     byte = 1 << 2
	hasOk        byte = 1 << 3
	hasErr       byte = 1 << 4
	hasMeta      byte = 1 << 5
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	w := binWriter{buf: make([]byte, b.SizeBytes(msg)), pos: 2}
	w.buf[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		w.putString(msg.Key)
	}
	if msg.Timestamp > 0 {
		flags |= hasTimestamp
		w.putUint64(msg.Timestamp)
	}
	if msg.Value != nil {
		flags |= hasValue
		w.putBytes(msg.Value)
	}
	if msg.Ok {
		flags |= hasOk
		w.buf[w.pos] = 1
		w.pos++
	}
	if msg.Err != "" {
		flags |= hasErr
		w.putString(msg.Err)
	}
	if msg.Meta != nil {
		flags |= hasMeta
		w.putBytes(msg.Meta)
	}

	// flags are known only after all fields were visited
	w.buf[1] = flags
	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	r := binReader{data: data, pos: 2}

	*msg = common.Message{MsgType: msg.MsgType}

	var err error
	if flags&hasKey != 0 {
		if msg.Key, err = r.string("key"); err != nil {
			return err
		}
	}
	if flags&hasTimestamp != 0 {
		if msg.Timestamp, err = r.uint64("timestamp"); err != nil {
			return err
		}
	}
	if flags&hasValue != 0 {
		if msg.Value, err = r.bytes("value"); err != nil {
			return err
		}
	}
	if flags&hasOk != 0 {
		if r.pos+1 > len(data) {
			return fmt.Errorf("data too short for ok flag")
		}
		msg.Ok = data[r.pos] != 0
		r.pos++
	}
	if flags&hasErr != 0 {
		if msg.Err, err = r.string("error"); err != nil {
			return err
		}
	}
	if flags&hasMeta != 0 {
		if msg.Meta, err = r.bytes("meta"); err != nil {
			return err
		}
	}

	if r.pos != len(data) {
		return fmt.Errorf("%d trailing bytes after message", len(data)-r.pos)
	}
	return nil
}

// SizeBytes returns the exact size of the serialized message without encoding it
func (b binarySerializerImpl) SizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Timestamp > 0 {
		size += 8
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Ok {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// binWriter writes fields into a buffer that was sized with SizeBytes
type binWriter struct {
	buf []byte
	pos int
}

func (w *binWriter) putUint64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
}

func (w *binWriter) putBytes(v []byte) {
	binary.BigEndian.PutUint32(w.buf[w.pos:], uint32(len(v)))
	w.pos += 4
	w.pos += copy(w.buf[w.pos:], v)
}

func (w *binWriter) putString(v string) {
	binary.BigEndian.PutUint32(w.buf[w.pos:], uint32(len(v)))
	w.pos += 4
	w.pos += copy(w.buf[w.pos:], v)
}

// binReader reads fields and reports truncated input
type binReader struct {
	data []byte
	pos  int
}

func (r *binReader) uint64(field string) (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// bytes returns a copy, so the result does not alias the (reused) read buffer
func (r *binReader) bytes(field string) ([]byte, error) {
	if r.pos+4 > len(r.data) {
		return nil, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("data too short for %s data", field)
	}
	v := make([]byte, n)
	copy(v, r.data[r.pos:r.pos+n])
	r.pos += n
	return v, nil
}

func (r *binReader) string(field string) (string, error) {
	v, err := r.bytes(field)
	if err != nil {
		return "", err
	}
	return string(v), nil
}
