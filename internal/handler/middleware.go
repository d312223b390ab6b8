package handler

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/dmorgan81/text2image/internal/log"
	"github.com/dmorgan81/text2image/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
)

// Logging attaches a request scoped logger to the request context and
// records request metrics.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := lo.CoalesceOrEmpty(c.GetHeader("X-Request-Id"), ulid.Make().String())
		c.Header("X-Request-Id", requestID)

		reqLog := logger.With("request_id", requestID, "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(log.NewContext(c.Request.Context(), reqLog))

		c.Next()

		status := c.Writer.Status()
		endpoint := lo.CoalesceOrEmpty(c.FullPath(), "unmatched")
		elapsed := time.Since(start)
		metrics.RecordRequest(c.Request.Method, endpoint, strconv.Itoa(status), elapsed.Seconds())
		reqLog.Info("request completed", "status", status, "duration", elapsed.String())
	}
}
