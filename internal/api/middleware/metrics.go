package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campus-works/internal/metrics"
)

// Metrics 记录 HTTP 请求耗时，route 取路由模板以控制标签基数
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
