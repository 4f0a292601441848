package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	// Prepare header and body
	header := Header{
		CodecType: CodecTypeJSON,
		MsgType:   MsgTypeRequest,
		RequestID: 12345,
		BodyLen:   11,
	}
	body := []byte("hello world")

	// Encode header and body into buffer
	var buf bytes.Buffer
	if err := Encode(&buf, &header, body); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Decode header and body from buffer
	decodedHeader, decodedBody, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Verify decoded header
	if decodedHeader.CodecType != header.CodecType {
		t.Errorf("CodecType mismatch: got %d, want %d", decodedHeader.CodecType, header.CodecType)
	}
	if decodedHeader.MsgType != header.MsgType {
		t.Errorf("MsgType mismatch: got %d, want %d", decodedHeader.MsgType, header.MsgType)
	}
	if decodedHeader.RequestID != header.RequestID {
		t.Errorf("RequestID mismatch: got %d, want %d", decodedHeader.RequestID, header.RequestID)
	}
	if decodedHeader.BodyLen != header.BodyLen {
		t.Errorf("BodyLen mismatch: got %d, want %d", decodedHeader.BodyLen, header.BodyLen)
	}

	// Verify decoded body
	if !bytes.Equal(decodedBody, body) {
		t.Errorf("Body mismatch: got %s, want %s", string(decodedBody), string(body))
	}
}

func TestDecodeInvalidMagic(t *testing.T) {
	// Prepare invalid header with wrong magic number
	invalidHeader := []byte{
		0x00, 0x00, 0x00, Version, CodecTypeJSON, byte(MsgTypeRequest),
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x30, 0x39, // requestId
		0x00, 0x00, 0x00, 0x0B, // bodyLen
	}
	var buf bytes.Buffer
	buf.Write(invalidHeader)
	buf.Write([]byte("hello world"))

	// Decode should fail with invalid magic number error
	_, _, err := Decode(&buf)
	if err == nil {
		t.Fatal("Expected error for invalid magic number, but got nil")
	}

	if !bytes.Contains([]byte(err.Error()), []byte("invalid magic number")) {
		t.Errorf("Error message should contain 'invalid magic', instead: %v", err)
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	// Prepare header with zero body length
	header := Header{
		CodecType: CodecTypeJSON,
		MsgType:   MsgTypeHeartbeat,
		RequestID: 12345,
		BodyLen:   0,
	}
	var buf bytes.Buffer
	if err := Encode(&buf, &header, []byte{}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Decode should succeed with empty body
	decodedHeader, decodedBody, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decodedHeader.MsgType != MsgTypeHeartbeat {
		t.Errorf("MsgType mismatch: got %d, want %d", decodedHeader.MsgType, MsgTypeHeartbeat)
	}
	if decodedHeader.BodyLen != 0 {
		t.Errorf("BodyLen mismatch: got %d, want 0", decodedHeader.BodyLen)
	}
	if len(decodedBody) != 0 {
		t.Errorf("Expected empty body, got length %d", len(decodedBody))
	}
}

func TestDecodeInvalidVersion(t *testing.T) {
	var buf bytes.Buffer

	invalidFrame := []byte{
		MagicNumber, MagicByte2, MagicByte3,
		0xFF, // wrong version
		CodecTypeJSON,
		byte(MsgTypeRequest),
		0, 0, 0, 0, 0, 0, 0, 1, // requestId
		0, 0, 0, 0, // bodyLen
	}
	buf.Write(invalidFrame)

	_, _, err := Decode(&buf)
	if err == nil {
		t.Fatal("Expected error for invalid version, but Decode succeeded")
	}

	if !bytes.Contains([]byte(err.Error()), []byte("unsupported version")) {
		t.Errorf("Error message should contain 'unsupported version', instead: %v", err)
	}
}

func TestDecodeLargeBody(t *testing.T) {
	var buf bytes.Buffer

	// 1MB body
	largeBody := make([]byte, 1024*1024)
	for i := range largeBody {
		largeBody[i] = byte(i % 256)
	}

	header := &Header{
		CodecType: CodecTypeBinary,
		MsgType:   MsgTypeRequest,
		RequestID: 999,
		BodyLen:   uint32(len(largeBody)),
	}

	if err := Encode(&buf, header, largeBody); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, decodedBody, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !bytes.Equal(decodedBody, largeBody) {
		t.Errorf("Large body mismatch")
	}
}
