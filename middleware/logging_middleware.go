package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bridge-rpc/message"
)

// LoggingMiddleware logs every inbound request and how long its dispatch
// took. For streaming requests the duration covers only the dispatch entry
// (subscription setup), not the lifetime of the stream.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request, send SendFunc) {
			start := time.Now()
			next(ctx, req, send)
			logger.Info("request dispatched",
				zap.Uint64("requestId", req.ID),
				zap.String("type", req.Kind),
				zap.Duration("duration", time.Since(start)))
		}
	}
}
