package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RequestID 取得或補上請求 ID
func RequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.Writer.Header().Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}

// RespondError 將錯誤轉為 JSON 響應，非 CustomError 一律視為 500
func RespondError(c *gin.Context, err error) {
	ce, ok := AsCustomError(err)
	if !ok {
		ce = NewInternalError("Internal server error", err)
	}

	message := ce.Message
	if message == "" {
		message = http.StatusText(ce.Status)
	}

	if ce.Status >= http.StatusInternalServerError {
		LogError("請求處理失敗",
			zap.Error(err),
			zap.String("code", ce.Code),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(ce.Status, ErrorResponse{
		Error: message,
		Code:  ce.Code,
	})
}
