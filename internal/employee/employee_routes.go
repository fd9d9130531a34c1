package employee

import (
	"go-hrms/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	logger *zap.Logger,
) {
	employees := r.Group("/employees")
	employees.Use(middleware.ContextLogger(logger))
	{
		employees.GET("",
			middleware.RateLimitByIP(3, 10),
			handler.GetAll,
		)

		employees.GET("/options",
			middleware.RateLimitByIP(5, 20), // Limit sedikit lebih longgar karena ringan
			handler.GetOptions,
		)

		employees.GET("/export/excel",
			middleware.RateLimitByIP(0.2, 2),
			handler.ExportExcel,
		)

		employees.GET("/:id",
			middleware.RateLimitByIP(3, 10),
			handler.GetById,
		)

		employees.POST("",
			middleware.RateLimitByIP(1, 5),
			handler.Create,
		)

		employees.PUT("/:id",
			middleware.RateLimitByIP(1, 5),
			handler.Update,
		)

		employees.DELETE("/:id",
			middleware.RateLimitByIP(0.5, 2),
			handler.Delete,
		)
	}
}
