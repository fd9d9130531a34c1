package attendance

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	attendanceerrors "go-hrms/internal/attendance/errors"
	"go-hrms/internal/bootstrap"
	"go-hrms/internal/middleware"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

type Handler struct {
	service Service
	uploads *UploadStore
	rdb     *redis.Client
	audit   bootstrap.AuditLogger
	logger  *zap.Logger
}

func NewHandler(
	service Service,
	uploads *UploadStore,
	rdb *redis.Client,
	audit bootstrap.AuditLogger,
	logger ...*zap.Logger,
) *Handler {
	l := zap.L().Named("attendance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.handler")
	}
	return &Handler{service: service, uploads: uploads, rdb: rdb, audit: audit, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	}
	if apperror.IsUnexpected(err) {
		h.logger.Error("attendance request failed", append(fields, zap.Error(err))...)
	} else {
		h.logger.Warn("attendance request failed", fields...)
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	var filter AttendanceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewListMeta(len(resp))
	response.Success(c, http.StatusOK, resp, &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

// Upload keeps going after the client disconnects; the idempotency lock is
// still released and the result cached.
func (h *Handler) Upload(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	cacheKey, lockKey := middleware.IdempotencyKeys(c)
	if h.rdb != nil && lockKey != "" {
		defer h.rdb.Del(ctx, lockKey)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		h.writeServiceError(c, attendanceerrors.ErrCSVRequired)
		return
	}

	up, err := h.uploads.Save(fh)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	defer up.Close()

	resp, err := h.service.Import(ctx, up)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.rdb != nil && cacheKey != "" {
		if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
			if err := h.rdb.Set(ctx, cacheKey, payload, idempotencyTTL).Err(); err != nil {
				h.logger.Warn("cache upload result failed", zap.Error(err))
			}
		}
	}

	if h.audit != nil {
		h.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "ATTENDANCE_IMPORTED",
			Message: "Bulk attendance import completed",
			Meta: map[string]any{
				"file":    fh.Filename,
				"bytes":   fh.Size,
				"created": resp.Count,
			},
		})
	}

	response.Success(c, http.StatusOK, resp, nil)
}
