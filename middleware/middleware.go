// Package middleware wraps the dispatch entrypoint in an onion-model chain.
// A handler receives the inbound request and a send function; unlike a
// classic one-in/one-out RPC handler it may send zero responses (void calls)
// or many (streams), so middlewares observe the entry, not the reply count.
package middleware

import (
	"context"

	"bridge-rpc/message"
)

// SendFunc writes one response message to the peer.
type SendFunc func(resp *message.Response) error

// HandlerFunc handles one inbound request, sending responses as they become
// available.
type HandlerFunc func(ctx context.Context, req *message.Request, send SendFunc)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into one. Chain(A, B, C)(handler) → A(B(C(handler))):
// A runs outermost, the handler innermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
