package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-works/pkg/redis"
	"campus-works/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// 已认证请求按用户计数，否则按客户端 IP；rdb 为 nil 或 Redis 出错时降级放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", rateLimitSubject(c), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("限流检查失败，降级放行", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitSubject(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}
