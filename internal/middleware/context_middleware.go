package middleware

import (
	"go-hrms/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	return func(c *gin.Context) {
		// 1. Request ID: pakai yang sudah dibuat RequestID() kalau ada
		rid := c.GetString("request_id")
		if rid == "" {
			rid = c.GetHeader(RequestIDHeader)
		}
		if !validRequestID(rid) {
			rid = uuid.New().String()
		}
		c.Header(RequestIDHeader, rid)

		ip := c.ClientIP()

		// 2. Scoped logger untuk sepanjang request ini
		reqLogger := logger.With(
			zap.String("request_id", rid),
			zap.String("client_ip", ip),
		)

		// 3. Propagasi ke Standard Context agar service/repo tidak perlu tahu Gin
		ctx := c.Request.Context()
		ctx = contextutil.WithRequestID(ctx, rid)
		ctx = contextutil.WithClientIP(ctx, ip)
		ctx = contextutil.WithLogger(ctx, reqLogger)

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
