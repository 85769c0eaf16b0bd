package middleware

import (
	"context"
	"log/slog"
	"time"

	"order-service/pkg/ctxmanage"
	"order-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Logger assigns every request a trace id and logs request start and finish.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := uuid.NewString()

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, ctxmanage.TraceIdKey, traceId)
		c.Request = c.Request.WithContext(ctx)

		slog.Info("started",
			slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method),
			slog.String("URL Path", c.Request.URL.Path),
		)

		start := time.Now()
		c.Next()

		slog.Info("completed",
			slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method),
			slog.String("URL Path", c.Request.URL.Path),
			slog.Int("Status Code", c.Writer.Status()),
			slog.Int64("duration μs", time.Since(start).Microseconds()),
		)
	}
}
