package app

import (
	"context"
	"net/http"
	"time"

	"go-hrms/internal/attendance"
	"go-hrms/internal/config"
	"go-hrms/internal/employee"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/connection"
	"go-hrms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BuildApp connects infrastructure, migrates the schema and registers every
// route on router. The returned cleanup closes what was opened.
func BuildApp(router *gin.Engine, cfg config.Config) (func(), error) {
	logger := zap.L().Named("app")

	// 1. Database: fail fast, no request is served without it
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := connection.Migrate(gormDB, &employee.Employee{}, &attendance.Attendance{}); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("database schema migrated")
	}

	// 2. Redis opsional: cache dan idempotency dimatikan kalau tidak ada
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.Database.MaxRetries)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
			rdb = nil
		}
	}

	registerModules(router, cfg, sqlDB, gormDB, rdb, logger)

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			response.Error(c, http.StatusServiceUnavailable, apperror.CodeServiceUnavailable, "Database unavailable", nil)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, nil)
	})
	router.GET(cfg.MetricsPath, gin.WrapH(promhttp.Handler()))

	cleanup := func() {
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				logger.Warn("close redis failed", zap.Error(err))
			}
		}
		if err := sqlDB.Close(); err != nil {
			logger.Warn("close database failed", zap.Error(err))
		}
	}
	return cleanup, nil
}
