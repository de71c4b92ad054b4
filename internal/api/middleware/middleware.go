package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func abortWith(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, ErrorResponse{Code: code, Message: message, Details: details})
	c.Abort()
}

// ErrorHandling 捕获panic并把handler挂到context上的错误翻译成统一响应。
// handler自行写出的4xx/409不经过这里。
func ErrorHandling(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path))
				abortWith(c, http.StatusInternalServerError,
					"INTERNAL_ERROR", "An internal error occurred", "")
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		logger.Error("request error",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path))

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			abortWith(c, http.StatusNotFound, "NOT_FOUND", "Resource not found", "")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			abortWith(c, http.StatusConflict, "DUPLICATE", "Resource already exists", "")
		default:
			abortWith(c, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An error occurred while processing your request", err.Error())
		}
	}
}

// Cors 跨域配置，控制台前端直连用
func Cors() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	return cors.New(cfg)
}
