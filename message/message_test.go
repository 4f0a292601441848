package message

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	req := &Request{
		ID:       42,
		Kind:     KindFunctionCall,
		Function: "Math/add",
		Args:     []any{float64(1), float64(2)},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	var req2 Request
	if err := json.Unmarshal(data, &req2); err != nil {
		t.Fatalf("Failed to unmarshal request: %v", err)
	}

	if req2.ID != req.ID || req2.Kind != req.Kind || req2.Function != req.Function {
		t.Fatalf("Round trip mismatch: %+v", req2)
	}
	if len(req2.Args) != 2 {
		t.Fatalf("Expect 2 args, got %d", len(req2.Args))
	}
}

func TestResponseWireFields(t *testing.T) {
	resp := NewPromiseResult(7, "hello")

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}

	if fields["channel"] != Channel {
		t.Errorf("channel mismatch: got %v, want %v", fields["channel"], Channel)
	}
	if fields["requestId"] != float64(7) {
		t.Errorf("requestId mismatch: got %v", fields["requestId"])
	}
	if fields["hadError"] != false {
		t.Errorf("hadError should be present and false, got %v", fields["hadError"])
	}
}

func TestStreamEventShapes(t *testing.T) {
	next := NewStreamNext(3, 99)
	ev, ok := next.Result.(*StreamEvent)
	if !ok {
		t.Fatalf("Expect *StreamEvent result, got %T", next.Result)
	}
	if ev.Type != EventNext || ev.Data != 99 {
		t.Errorf("Unexpected next event: %+v", ev)
	}

	done := NewStreamCompleted(3)
	ev, ok = done.Result.(*StreamEvent)
	if !ok {
		t.Fatalf("Expect *StreamEvent result, got %T", done.Result)
	}
	if ev.Type != EventCompleted || ev.Data != nil {
		t.Errorf("Unexpected completed event: %+v", ev)
	}
}

type codedError struct{ msg string }

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return "EBRIDGE" }

func TestFormatError(t *testing.T) {
	if got := FormatError(nil); got != nil {
		t.Errorf("nil should stay nil, got %v", got)
	}

	if got := FormatError("boom"); got != "boom" {
		t.Errorf("strings should pass through, got %v", got)
	}

	we, ok := FormatError(errors.New("broken")).(*WireError)
	if !ok {
		t.Fatal("errors should become *WireError")
	}
	if we.Message != "broken" || we.Code != "" {
		t.Errorf("Unexpected wire error: %+v", we)
	}

	we, ok = FormatError(&codedError{msg: "typed"}).(*WireError)
	if !ok {
		t.Fatal("coded errors should become *WireError")
	}
	if we.Code != "EBRIDGE" {
		t.Errorf("Expect code EBRIDGE, got %q", we.Code)
	}

	s, ok := FormatError(12345).(string)
	if !ok || !strings.HasPrefix(s, "Unknown Error: ") {
		t.Errorf("Other values should be stringified with prefix, got %v", s)
	}
}
