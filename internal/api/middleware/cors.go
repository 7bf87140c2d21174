package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS 跨域中间件，仅对白名单内的 Origin 回写允许头
// 白名单含 "*" 时放行任意 Origin 但不携带凭证（本地联调用）
// 暴露 Content-Disposition 以便前端读取导出文件名
func CORS(allowOrigins []string) gin.HandlerFunc {
	allowAny := false
	originsMap := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		if o == "*" {
			allowAny = true
			continue
		}
		originsMap[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		switch {
		case origin != "" && originsMap[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		case origin != "" && allowAny:
			c.Header("Access-Control-Allow-Origin", "*")
		default:
			origin = ""
		}

		if origin != "" {
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition, Retry-After")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
