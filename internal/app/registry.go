package app

import (
	"database/sql"

	"go-hrms/internal/attendance"
	"go-hrms/internal/bootstrap"
	"go-hrms/internal/config"
	"go-hrms/internal/employee"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	// --- Repositories ---
	employeeRepo := employee.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	employeeService := employee.NewServiceWithOutbox(db, employeeRepo, counterRepo, outboxRepo, rdb, logger)
	directory := employee.NewDirectory(employeeRepo)
	attendanceService := attendance.NewServiceWithOutbox(attendanceRepo, directory, outboxRepo, logger)

	// --- Handlers ---
	auditLogger := bootstrap.NewStdoutAuditLogger(logger)
	uploads := attendance.NewUploadStore(cfg.Upload.Dir, cfg.Upload.MaxBytes, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	attendanceHandler := attendance.NewHandler(attendanceService, uploads, rdb, auditLogger, logger)

	// --- Routes Registration ---
	api := router.Group("/api")
	{
		employee.RegisterRoutes(api, employeeHandler, logger)
		attendance.RegisterRoutes(api, attendanceHandler, rdb, logger)
	}
}
