package message

import "fmt"

// WireError is the wire shape of a native error value.
type WireError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Coder is implemented by errors that carry a stable machine-readable code.
type Coder interface {
	Code() string
}

// StackTracer is implemented by errors that captured a stack trace.
type StackTracer interface {
	StackTrace() string
}

// FormatError converts an arbitrary failure value into its wire form:
// errors become a {message, code, stack} object, plain strings pass through
// unchanged, nil stays nil, and anything else is stringified with an
// "Unknown Error:" prefix.
func FormatError(err any) any {
	switch e := err.(type) {
	case nil:
		return nil
	case error:
		we := &WireError{Message: e.Error()}
		if coder, ok := e.(Coder); ok {
			we.Code = coder.Code()
		}
		if st, ok := e.(StackTracer); ok {
			we.Stack = st.StackTrace()
		}
		return we
	case string:
		return e
	default:
		return fmt.Sprintf("Unknown Error: %v", e)
	}
}
