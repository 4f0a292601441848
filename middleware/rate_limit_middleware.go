package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"bridge-rpc/message"
)

var errRateLimited = errors.New("rate limit exceeded")

// RateLimitMiddleware rejects requests above a token-bucket rate. Rejected
// requests are answered with an error message so the peer's pending promise
// settles instead of hanging.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request, send SendFunc) {
			if !limiter.Allow() {
				_ = send(message.NewError(req.ID, errRateLimited))
				return
			}
			next(ctx, req, send)
		}
	}
}
