package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inference-gateway/capability-orchestrator/logger"
	"github.com/inference-gateway/capability-orchestrator/otel"
)

type Telemetry interface {
	Middleware() gin.HandlerFunc
}

type TelemetryImpl struct {
	telemetry otel.OpenTelemetry
	logger    logger.Logger
}

func NewTelemetryMiddleware(telemetry otel.OpenTelemetry, log logger.Logger) (Telemetry, error) {
	if telemetry == nil {
		telemetry = otel.Noop{}
	}
	return &TelemetryImpl{
		telemetry: telemetry,
		logger:    log,
	}, nil
}

// Middleware records the count and latency of every request by route template
func (t *TelemetryImpl) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		t.telemetry.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			route,
			c.Writer.Status(),
			float64(time.Since(start).Milliseconds()),
		)
	}
}
