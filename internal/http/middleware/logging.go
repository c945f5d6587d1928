package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ephraimdevelops/bebax/internal/logger"
)

func Logging(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
}
