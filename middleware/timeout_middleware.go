package middleware

import (
	"context"
	"time"

	"bridge-rpc/message"
)

// TimeoutMiddleware bounds how long a single dispatch may run. The deadline
// propagates through the request context, so a promise-returning call whose
// deferred never settles fails with the context error instead of leaking its
// goroutine forever.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request, send SendFunc) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			next(ctx, req, send)
		}
	}
}
