package handler

import (
	"net/http"

	"event-ticketing/pkg/apperrors"
	"event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// ParseUUIDParam 解析路徑參數中的 UUID, 失敗時直接回應 400
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondError 依錯誤類別對應 HTTP 狀態碼：
// Validation -> 400, NotFound -> 404, Conflict -> 409, 其餘 -> 500
func respondError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		log.Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.KindNotFound:
		log.Warn("Resource not found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.KindConflict:
		log.Warn("Conflict")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		// 內部錯誤不外洩細節
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func respondSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
