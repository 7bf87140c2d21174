package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-works/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// Handler 绑定 JSON 失败时通过 c.Error 上报，超限错误在此统一改写为 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10007, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() || c.Writer.Written() {
			return
		}
		var tooLarge *http.MaxBytesError
		for _, err := range c.Errors {
			if errors.As(err.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10007, "请求体过大")
				return
			}
		}
	}
}
