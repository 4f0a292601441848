package codec

import (
	"testing"

	"bridge-rpc/message"
)

func TestJSONCodec(t *testing.T) {
	jsonCodec := &JSONCodec{}

	originalMsg := &message.Request{
		ID:       9,
		Kind:     message.KindFunctionCall,
		Function: "Math/add",
		Args:     []any{float64(1), float64(2)},
	}

	data, err := jsonCodec.Encode(originalMsg)
	if err != nil {
		t.Fatalf("JSONCodec Encode failed: %v", err)
	}

	var decodedMsg message.Request
	err = jsonCodec.Decode(data, &decodedMsg)
	if err != nil {
		t.Fatalf("JSONCodec Decode failed: %v", err)
	}

	if originalMsg.ID != decodedMsg.ID {
		t.Errorf("ID mismatch: got %d, want %d", decodedMsg.ID, originalMsg.ID)
	}
	if originalMsg.Kind != decodedMsg.Kind {
		t.Errorf("Kind mismatch: got %s, want %s", decodedMsg.Kind, originalMsg.Kind)
	}
	if originalMsg.Function != decodedMsg.Function {
		t.Errorf("Function mismatch: got %s, want %s", decodedMsg.Function, originalMsg.Function)
	}
	if len(decodedMsg.Args) != 2 {
		t.Errorf("Args mismatch: got %v", decodedMsg.Args)
	}
}

func TestBinaryCodecRequest(t *testing.T) {
	binaryCodec := &BinaryCodec{}

	originalMsg := &message.Request{
		ID:       17,
		Kind:     message.KindMethodCall,
		ObjectID: 4,
		Method:   "increment",
		Args:     []any{float64(5)},
	}

	data, err := binaryCodec.Encode(originalMsg)
	if err != nil {
		t.Fatalf("BinaryCodec Encode failed: %v", err)
	}

	var decodedMsg message.Request
	err = binaryCodec.Decode(data, &decodedMsg)
	if err != nil {
		t.Fatalf("BinaryCodec Decode failed: %v", err)
	}

	if originalMsg.ID != decodedMsg.ID {
		t.Errorf("ID mismatch: got %d, want %d", decodedMsg.ID, originalMsg.ID)
	}
	if originalMsg.Kind != decodedMsg.Kind {
		t.Errorf("Kind mismatch: got %s, want %s", decodedMsg.Kind, originalMsg.Kind)
	}
	if originalMsg.ObjectID != decodedMsg.ObjectID {
		t.Errorf("ObjectID mismatch: got %d, want %d", decodedMsg.ObjectID, originalMsg.ObjectID)
	}
	if originalMsg.Method != decodedMsg.Method {
		t.Errorf("Method mismatch: got %s, want %s", decodedMsg.Method, originalMsg.Method)
	}
	if len(decodedMsg.Args) != 1 || decodedMsg.Args[0] != float64(5) {
		t.Errorf("Args mismatch: got %v", decodedMsg.Args)
	}
}

func TestBinaryCodecResponse(t *testing.T) {
	binaryCodec := &BinaryCodec{}

	originalMsg := message.NewError(23, "something failed")

	data, err := binaryCodec.Encode(originalMsg)
	if err != nil {
		t.Fatalf("BinaryCodec Encode failed: %v", err)
	}

	var decodedMsg message.Response
	err = binaryCodec.Decode(data, &decodedMsg)
	if err != nil {
		t.Fatalf("BinaryCodec Decode failed: %v", err)
	}

	if decodedMsg.ID != 23 {
		t.Errorf("ID mismatch: got %d, want 23", decodedMsg.ID)
	}
	if !decodedMsg.HadError {
		t.Error("Expect hadError set")
	}
	if decodedMsg.Error != "something failed" {
		t.Errorf("Error mismatch: got %v", decodedMsg.Error)
	}
	if decodedMsg.Channel != message.Channel {
		t.Errorf("Channel mismatch: got %s", decodedMsg.Channel)
	}
}

func TestBinaryCodecTruncated(t *testing.T) {
	binaryCodec := &BinaryCodec{}

	data, err := binaryCodec.Encode(&message.Request{ID: 1, Kind: message.KindDisposeObject, ObjectID: 2})
	if err != nil {
		t.Fatal(err)
	}

	var decodedMsg message.Request
	if err := binaryCodec.Decode(data[:len(data)-3], &decodedMsg); err == nil {
		t.Error("Expect error decoding truncated envelope")
	}
}
