package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-works/pkg/jwt"
	"campus-works/pkg/redis"
	"campus-works/pkg/response"
)

// JWTAuth 校验访问令牌，并将 user_id / role / token_id 写入上下文
// rdb 为 nil 或 Redis 故障时跳过黑名单检查
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := jwtMgr.ParseAuthorization(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, 10002, authErrorMessage(err))
			c.Abort()
			return
		}

		if rdb != nil && claims.ID != "" {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("检查 Token 黑名单失败，降级放行",
					zap.String("user_id", claims.UserID), zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("token_id", claims.ID)

		c.Next()
	}
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMissing):
		return "缺少认证头或格式无效"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token 已过期"
	case errors.Is(err, jwt.ErrUnknownRole):
		return "Token 角色无效"
	default:
		return "Token 无效"
	}
}

// RoleAuth 要求调用方的平台角色属于 allowedRoles 之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}
		c.Next()
	}
}
