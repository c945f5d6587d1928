package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/logger"
)

func Recovery(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in handler",
					logger.String("path", c.Request.URL.Path),
					logger.Any("panic", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}
