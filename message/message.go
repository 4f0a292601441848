// Package message defines the request and response envelopes exchanged over
// the bridge channel.
//
// A Request arrives from the peer and names one of five operations: calling a
// registered function, calling a method on a live remote object, constructing
// a new object, disposing an object, or cancelling a live stream. Every
// Response carries the originating request id so the peer can correlate
// replies that arrive out of order relative to other in-flight requests.
package message

// Channel is the discriminator constant stamped on every outbound response.
const Channel = "rpc-bridge"

// Request kinds.
const (
	KindFunctionCall      = "functionCall"
	KindMethodCall        = "methodCall"
	KindNewObject         = "newObject"
	KindDisposeObject     = "disposeObject"
	KindDisposeObservable = "disposeObservable"
)

// Request carries one inbound operation.
//
// Which fields are meaningful depends on Kind:
//
//   - functionCall:      Function (qualified "Service/name"), Args
//   - methodCall:        ObjectID, Method, Args
//   - newObject:         Interface, Args
//   - disposeObject:     ObjectID
//   - disposeObservable: only ID — the id of the original streaming call
type Request struct {
	ID        uint64 `json:"requestId"`
	Kind      string `json:"type"`
	Function  string `json:"function,omitempty"`
	ObjectID  uint64 `json:"objectId,omitempty"`
	Method    string `json:"method,omitempty"`
	Interface string `json:"interface,omitempty"`
	Args      []any  `json:"args,omitempty"`
}

// Stream event types carried inside an observable response.
const (
	EventNext      = "next"
	EventCompleted = "completed"
)

// StreamEvent is one emission of a streaming result.
type StreamEvent struct {
	Type string `json:"type"`           // "next" or "completed"
	Data any    `json:"data,omitempty"` // marshalled value, "next" only
}

// Response is the single outbound envelope shape. A promise reply carries
// Result, a stream reply carries a *StreamEvent in Result, and any failure
// carries HadError plus the formatted Error body.
type Response struct {
	Channel  string `json:"channel"`
	ID       uint64 `json:"requestId"`
	HadError bool   `json:"hadError"`
	Result   any    `json:"result,omitempty"`
	Error    any    `json:"error,omitempty"`
}

// NewPromiseResult builds the single success reply of a promise-returning
// call. A void-typed completion passes a nil result.
func NewPromiseResult(id uint64, result any) *Response {
	return &Response{Channel: Channel, ID: id, Result: result}
}

// NewError builds a failure reply. It serves both as the ErrorMessage for
// dispatch failures and as the failed settlement of a promise or stream.
func NewError(id uint64, err any) *Response {
	return &Response{Channel: Channel, ID: id, HadError: true, Error: FormatError(err)}
}

// NewStreamNext builds one ordered "next" emission of a streaming call.
func NewStreamNext(id uint64, data any) *Response {
	return &Response{Channel: Channel, ID: id, Result: &StreamEvent{Type: EventNext, Data: data}}
}

// NewStreamCompleted builds the natural-completion terminal of a stream.
func NewStreamCompleted(id uint64) *Response {
	return &Response{Channel: Channel, ID: id, Result: &StreamEvent{Type: EventCompleted}}
}
