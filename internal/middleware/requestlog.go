package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/platebook-backend/internal/platform/ctxutil"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

// RequestLog emits one structured line per request.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("middleware", "RequestLog")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestID := ""
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			requestID = td.RequestID
		}
		reqLog.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	}
}
