package codec

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"bridge-rpc/message"
)

// BinaryCodec packs the envelope fields with length prefixes instead of
// repeating JSON field names for every message. The free-form parts of an
// envelope (args, results, formatted errors) are still JSON bytes inside the
// binary layout — they are schema-dependent and the marshaller already
// produces JSON-safe values for them.
//
// Request layout:
//
//	id(8) | kindLen(1) kind | funcLen(2) func | objectId(8) |
//	methodLen(2) method | ifaceLen(2) iface | argsLen(4) argsJSON
//
// Response layout:
//
//	id(8) | hadError(1) | resultLen(4) resultJSON | errLen(4) errJSON
type BinaryCodec struct{}

func (c *BinaryCodec) Encode(v any) ([]byte, error) {
	switch msg := v.(type) {
	case *message.Request:
		return c.encodeRequest(msg)
	case *message.Response:
		return c.encodeResponse(msg)
	default:
		return nil, fmt.Errorf("BinaryCodec: unsupported envelope type %T", v)
	}
}

func (c *BinaryCodec) Decode(data []byte, v any) error {
	switch msg := v.(type) {
	case *message.Request:
		return c.decodeRequest(data, msg)
	case *message.Response:
		return c.decodeResponse(data, msg)
	default:
		return fmt.Errorf("BinaryCodec: unsupported envelope type %T", v)
	}
}

func (c *BinaryCodec) Type() CodecType {
	return CodecTypeBinary
}

func (c *BinaryCodec) encodeRequest(msg *message.Request) ([]byte, error) {
	var args []byte
	if msg.Args != nil {
		var err error
		args, err = json.Marshal(msg.Args)
		if err != nil {
			return nil, err
		}
	}

	total := 8 + 1 + len(msg.Kind) + 2 + len(msg.Function) + 8 +
		2 + len(msg.Method) + 2 + len(msg.Interface) + 4 + len(args)
	buf := make([]byte, 0, total)

	buf = binary.BigEndian.AppendUint64(buf, msg.ID)
	buf = append(buf, byte(len(msg.Kind)))
	buf = append(buf, msg.Kind...)
	buf = appendString16(buf, msg.Function)
	buf = binary.BigEndian.AppendUint64(buf, msg.ObjectID)
	buf = appendString16(buf, msg.Method)
	buf = appendString16(buf, msg.Interface)
	buf = appendBytes32(buf, args)
	return buf, nil
}

func (c *BinaryCodec) decodeRequest(data []byte, msg *message.Request) error {
	r := reader{data: data}

	msg.ID = r.uint64()
	msg.Kind = r.string8()
	msg.Function = r.string16()
	msg.ObjectID = r.uint64()
	msg.Method = r.string16()
	msg.Interface = r.string16()
	args := r.bytes32()
	if r.err != nil {
		return r.err
	}

	msg.Args = nil
	if len(args) > 0 {
		if err := json.Unmarshal(args, &msg.Args); err != nil {
			return err
		}
	}
	return nil
}

func (c *BinaryCodec) encodeResponse(msg *message.Response) ([]byte, error) {
	var result, errBody []byte
	var err error
	if msg.Result != nil {
		if result, err = json.Marshal(msg.Result); err != nil {
			return nil, err
		}
	}
	if msg.Error != nil {
		if errBody, err = json.Marshal(msg.Error); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, 0, 8+1+4+len(result)+4+len(errBody))
	buf = binary.BigEndian.AppendUint64(buf, msg.ID)
	if msg.HadError {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendBytes32(buf, result)
	buf = appendBytes32(buf, errBody)
	return buf, nil
}

func (c *BinaryCodec) decodeResponse(data []byte, msg *message.Response) error {
	r := reader{data: data}

	msg.Channel = message.Channel
	msg.ID = r.uint64()
	msg.HadError = r.byte() == 1
	result := r.bytes32()
	errBody := r.bytes32()
	if r.err != nil {
		return r.err
	}

	msg.Result = nil
	if len(result) > 0 {
		if err := json.Unmarshal(result, &msg.Result); err != nil {
			return err
		}
	}
	msg.Error = nil
	if len(errBody) > 0 {
		if err := json.Unmarshal(errBody, &msg.Error); err != nil {
			return err
		}
	}
	return nil
}

func appendString16(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

func appendBytes32(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

var errShortBuffer = errors.New("BinaryCodec: truncated envelope")

// reader cursors through the packed layout, latching the first error.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = errShortBuffer
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) byte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) string8() string {
	return string(r.take(int(r.byte())))
}

func (r *reader) string16() string {
	b := r.take(2)
	if b == nil {
		return ""
	}
	return string(r.take(int(binary.BigEndian.Uint16(b))))
}

func (r *reader) bytes32() []byte {
	b := r.take(4)
	if b == nil {
		return nil
	}
	return r.take(int(binary.BigEndian.Uint32(b)))
}
