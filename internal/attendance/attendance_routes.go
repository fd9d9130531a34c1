package attendance

import (
	"go-hrms/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	attendance := r.Group("/attendance")
	attendance.Use(middleware.ContextLogger(logger))
	{
		attendance.POST("",
			middleware.RateLimitByIP(5, 20),
			h.Create,
		)
		attendance.GET("",
			middleware.RateLimitByIP(3, 10),
			h.GetAll,
		)

		// Upload berat: batasi lebih ketat dan dukung Idempotency-Key
		attendance.POST("/upload",
			middleware.RateLimitByIP(0.2, 2),
			middleware.Idempotency(rdb, logger),
			h.Upload,
		)

		attendance.GET("/:id",
			middleware.RateLimitByIP(3, 10),
			h.GetById,
		)
		attendance.PUT("/:id",
			middleware.RateLimitByIP(1, 5),
			h.Update,
		)
		attendance.DELETE("/:id",
			middleware.RateLimitByIP(0.5, 2),
			h.Delete,
		)
	}
}
