package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inference-gateway/capability-orchestrator/logger"
)

type Logger interface {
	Middleware() gin.HandlerFunc
}

type LoggerImpl struct {
	logger logger.Logger
}

func NewLoggerMiddleware(log logger.Logger) (Logger, error) {
	return &LoggerImpl{logger: log}, nil
}

// Middleware logs every request once it has been served
func (l *LoggerImpl) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			l.logger.Warn("request completed with errors", append(fields, "errors", c.Errors.String())...)
			return
		}
		l.logger.Info("request completed", fields...)
	}
}
